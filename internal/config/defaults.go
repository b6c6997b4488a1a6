package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultAggregateURL     = "http://localhost:8081"
	DefaultProjectionURL    = "http://localhost:8080"
	DefaultWebsocketURL     = "ws://localhost:8082"
	DefaultAPITimeout       = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryBackoff     = 1 * time.Second
	DefaultGatewayAddr      = ":3000"
	DefaultReadTimeout      = 10 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultReconnectDelay   = 1 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPongTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultBatchSize        = 100
	DefaultFlushInterval    = 1 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *ClientConfig) applyDefaults() {
	// Backend defaults
	if c.Backend.AggregateURL == "" {
		c.Backend.AggregateURL = DefaultAggregateURL
	}
	if c.Backend.ProjectionURL == "" {
		c.Backend.ProjectionURL = DefaultProjectionURL
	}
	if c.Backend.WebsocketURL == "" {
		c.Backend.WebsocketURL = DefaultWebsocketURL
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultAPITimeout
	}
	if c.Backend.MaxRetries == 0 {
		c.Backend.MaxRetries = DefaultMaxRetries
	}
	if c.Backend.RetryBackoff == 0 {
		c.Backend.RetryBackoff = DefaultRetryBackoff
	}

	// Gateway defaults
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = DefaultGatewayAddr
	}
	if c.Gateway.ReadTimeout == 0 {
		c.Gateway.ReadTimeout = DefaultReadTimeout
	}
	if c.Gateway.ShutdownTimeout == 0 {
		c.Gateway.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Live defaults
	if c.Live.ReconnectDelay == 0 {
		c.Live.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Live.HandshakeTimeout == 0 {
		c.Live.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Live.PingInterval == 0 {
		c.Live.PingInterval = DefaultPingInterval
	}
	if c.Live.PongTimeout == 0 {
		c.Live.PongTimeout = DefaultPongTimeout
	}
	if c.Live.WriteTimeout == 0 {
		c.Live.WriteTimeout = DefaultWriteTimeout
	}

	// Store defaults
	if c.Store.Path == "" && !c.Store.Memory {
		c.Store.Path = DefaultStorePath()
	}

	// Archive defaults
	applyDBDefaults(&c.Archive.Database)
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// DefaultStorePath returns <user config dir>/chat-client/user, falling back
// to a directory relative to the working directory when no config dir is
// known.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".chat-client", "user")
	}
	return filepath.Join(dir, "chat-client", "user")
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
