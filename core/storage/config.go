package storage

import (
	"strings"
	"time"
)

// Config holds the object storage connection used by the storage snapshot
// backend.
type Config struct {
	// Endpoint is host:port, optionally with an http:// or https:// scheme.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL enables TLS. An https:// endpoint enables it too.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds the snapshot document.
	Bucket string `mapstructure:"bucket" default:"livesync"`
	// Prefix is the object name prefix of the snapshot document.
	Prefix         string `mapstructure:"prefix" default:"snapshots"`
	Region         string `mapstructure:"region" default:""`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" default:"30"`
}

// Host returns Endpoint without its scheme, as minio expects.
func (c Config) Host() string {
	host := strings.TrimPrefix(c.Endpoint, "http://")
	return strings.TrimPrefix(host, "https://")
}

// Secure reports whether connections use TLS.
func (c Config) Secure() bool {
	return c.UseSSL || strings.HasPrefix(c.Endpoint, "https://")
}

// Timeout returns the connection timeout, 30s when unset.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
