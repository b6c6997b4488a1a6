package config

import "time"

// ClientConfig is the root configuration for the chat client.
type ClientConfig struct {
	Backend BackendConfig `yaml:"backend"`
	Gateway GatewayConfig `yaml:"gateway"`
	Live    LiveConfig    `yaml:"live"`
	Store   StoreConfig   `yaml:"store"`
	Archive ArchiveConfig `yaml:"archive"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig holds the chat service endpoints.
type BackendConfig struct {
	AggregateURL  string        `yaml:"aggregate_url"`  // Chat aggregate (commands)
	ProjectionURL string        `yaml:"projection_url"` // Chat projection (queries)
	WebsocketURL  string        `yaml:"websocket_url"`  // Live transport base, e.g. ws://host:8082
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// GatewayConfig holds the same-origin proxy settings.
type GatewayConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LiveConfig holds live connection settings.
type LiveConfig struct {
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PongTimeout      time.Duration `yaml:"pong_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// StoreConfig holds the local user identity store settings.
type StoreConfig struct {
	Path   string `yaml:"path"`   // PebbleDB directory; defaults under the user config dir
	Memory bool   `yaml:"memory"` // Keep identity in memory only (lost on exit)
}

// ArchiveConfig holds the optional Postgres message archive settings.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
