package transport

import "time"

// Config holds configuration for the websocket transport.
type Config struct {
	// URL is the websocket endpoint of the publication server.
	URL string `mapstructure:"url" default:"ws://localhost:8080/ws"`
	// ReconnectDelayMs is the minimum delay between two dial attempts.
	ReconnectDelayMs int `mapstructure:"reconnect_delay_ms" default:"1000"`
	// HandshakeTimeoutSeconds bounds the websocket handshake.
	HandshakeTimeoutSeconds int `mapstructure:"handshake_timeout_seconds" default:"10"`
	// WriteTimeoutSeconds bounds the write of a single frame.
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" default:"10"`
	// MaxFrameBytes is the largest inbound frame accepted.
	MaxFrameBytes int64 `mapstructure:"max_frame_bytes" default:"4194304"`
}

// ReconnectDelay returns the redial pacing, defaulting to one second.
func (c Config) ReconnectDelay() time.Duration {
	if c.ReconnectDelayMs <= 0 {
		return time.Second
	}
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

// HandshakeTimeout returns the handshake timeout, defaulting to 10 seconds.
func (c Config) HandshakeTimeout() time.Duration {
	if c.HandshakeTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HandshakeTimeoutSeconds) * time.Second
}

// WriteTimeout returns the frame write timeout, defaulting to 10 seconds.
func (c Config) WriteTimeout() time.Duration {
	if c.WriteTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// FrameLimit returns the inbound frame limit, defaulting to 4 MiB.
func (c Config) FrameLimit() int64 {
	if c.MaxFrameBytes <= 0 {
		return 4 << 20
	}
	return c.MaxFrameBytes
}
