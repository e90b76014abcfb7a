package snapshot

// Snapshot backends.
const (
	BackendNone     = "none"
	BackendDatabase = "database"
	BackendStorage  = "storage"
)

// Config selects the snapshot backend.
type Config struct {
	// Backend is none, database or storage.
	Backend string `mapstructure:"backend" default:"none"`
	// SaveDebounceMs delays a save after the last group update.
	SaveDebounceMs int `mapstructure:"save_debounce_ms" default:"1000"`
}

// Valid reports whether Backend is known.
func (c Config) Valid() bool {
	switch c.Backend {
	case BackendNone, BackendDatabase, BackendStorage:
		return true
	default:
		return false
	}
}

// Enabled reports whether snapshots are persisted.
func (c Config) Enabled() bool {
	return c.Backend != BackendNone && c.Backend != ""
}
