package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "ws://localhost:8080/ws", cfg.Transport.URL)
		assert.Equal(t, 1000, cfg.Transport.ReconnectDelayMs)
		assert.Equal(t, 8, cfg.Group.DebounceMs)
		assert.Equal(t, 4, cfg.Group.ItemDebounceMs)
		assert.Equal(t, "8090", cfg.Server.Port)
		assert.Equal(t, "none", cfg.Snapshot.Backend)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("TRANSPORT_URL", "ws://example.test/sync")
		t.Setenv("GROUP_DEBOUNCE_MS", "-1")
		t.Setenv("SNAPSHOT_BACKEND", "storage")

		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "ws://example.test/sync", cfg.Transport.URL)
		assert.Equal(t, -1, cfg.Group.DebounceMs)
		assert.Equal(t, "storage", cfg.Snapshot.Backend)
	})

	t.Run("DotEnv", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_FORMAT=console\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("LOG_FORMAT") })

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run("Invalid Backend", func(t *testing.T) {
		t.Setenv("SNAPSHOT_BACKEND", "floppy")

		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "snapshot.backend")
	})
}
