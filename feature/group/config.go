package group

import "time"

// Config holds the notification windows of groups built by the CLI.
type Config struct {
	// DebounceMs is the group update window, negative to disable.
	DebounceMs int `mapstructure:"debounce_ms" default:"8"`
	// ItemDebounceMs is the default item update window, negative to disable.
	ItemDebounceMs int `mapstructure:"item_debounce_ms" default:"4"`
}

// Options returns the group options for c.
func (c Config) Options() []Option {
	return []Option{
		WithDebounce(time.Duration(c.DebounceMs) * time.Millisecond),
		WithItemDebounce(time.Duration(c.ItemDebounceMs) * time.Millisecond),
	}
}
