package config

import (
	"reflect"
	"strings"

	"livesync/core/database"
	"livesync/core/errors"
	"livesync/core/logger"
	"livesync/core/server"
	"livesync/core/snapshot"
	"livesync/core/storage"
	"livesync/core/transport"
	"livesync/feature/group"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Transport holds configuration for the websocket connection.
	Transport transport.Config `mapstructure:"transport"`
	// Group holds the group notification windows.
	Group group.Config `mapstructure:"group"`
	// Server holds configuration for the HTTP inspection server.
	Server server.Config `mapstructure:"server"`
	// Snapshot selects where replica snapshots are persisted.
	Snapshot snapshot.Config `mapstructure:"snapshot"`
	// Database holds configuration for the database snapshot backend.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object storage snapshot backend.
	Storage storage.Config `mapstructure:"storage"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. TRANSPORT_URL -> transport.url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Newf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Transport.URL == "" {
		return errors.New("transport.url is required")
	}
	if !c.Snapshot.Valid() {
		return errors.WithHint(
			errors.Newf("unknown snapshot.backend %q", c.Snapshot.Backend),
			"use none, database or storage",
		)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
