package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
backend:
  aggregate_url: http://aggregate:8081
  projection_url: http://projection:8080
  websocket_url: ws://projection:8082
live:
  reconnect_delay: 250ms
store:
  path: /var/lib/chat/user
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.AggregateURL != "http://aggregate:8081" {
		t.Errorf("Backend.AggregateURL = %q, want %q", cfg.Backend.AggregateURL, "http://aggregate:8081")
	}
	if cfg.Backend.WebsocketURL != "ws://projection:8082" {
		t.Errorf("Backend.WebsocketURL = %q, want %q", cfg.Backend.WebsocketURL, "ws://projection:8082")
	}
	if cfg.Live.ReconnectDelay != 250*time.Millisecond {
		t.Errorf("Live.ReconnectDelay = %v, want %v", cfg.Live.ReconnectDelay, 250*time.Millisecond)
	}
	if cfg.Store.Path != "/var/lib/chat/user" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "/var/lib/chat/user")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("CHAT_AGGREGATE_URL", "http://agg.internal:9000")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
backend:
  aggregate_url: ${CHAT_AGGREGATE_URL}
archive:
  enabled: true
  database:
    host: localhost
    name: chat
    user: chat
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.AggregateURL != "http://agg.internal:9000" {
		t.Errorf("Backend.AggregateURL = %q, want %q", cfg.Backend.AggregateURL, "http://agg.internal:9000")
	}
	if cfg.Archive.Database.Password != "secret123" {
		t.Errorf("Archive.Database.Password = %q, want %q", cfg.Archive.Database.Password, "secret123")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CHAT_TEST_WS_URL=ws://from-dotenv:8082\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CHAT_TEST_WS_URL", "")
	os.Unsetenv("CHAT_TEST_WS_URL")

	if err := LoadEnvFile(envPath); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}

	cfg, err := Parse([]byte("backend:\n  websocket_url: ${CHAT_TEST_WS_URL}\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Backend.WebsocketURL != "ws://from-dotenv:8082" {
		t.Errorf("Backend.WebsocketURL = %q, want %q", cfg.Backend.WebsocketURL, "ws://from-dotenv:8082")
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadEnvFile on missing file = %v, want nil", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "backend:\n  websocket_url: ws://live:8082\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Backend.AggregateURL != DefaultAggregateURL {
		t.Errorf("Backend.AggregateURL = %q, want default %q", cfg.Backend.AggregateURL, DefaultAggregateURL)
	}
	if cfg.Backend.WebsocketURL != "ws://live:8082" {
		t.Errorf("Backend.WebsocketURL = %q, want %q", cfg.Backend.WebsocketURL, "ws://live:8082")
	}
	if cfg.Live.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("Live.ReconnectDelay = %v, want default %v", cfg.Live.ReconnectDelay, DefaultReconnectDelay)
	}
	if cfg.Gateway.Addr != DefaultGatewayAddr {
		t.Errorf("Gateway.Addr = %q, want default %q", cfg.Gateway.Addr, DefaultGatewayAddr)
	}
	if cfg.Archive.Database.Port != DefaultDBPort {
		t.Errorf("Archive.Database.Port = %d, want default %d", cfg.Archive.Database.Port, DefaultDBPort)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Store.Path != DefaultStorePath() {
		t.Errorf("Store.Path = %q, want default %q", cfg.Store.Path, DefaultStorePath())
	}
}

func TestDefaultStorePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	want := filepath.Join(dir, "chat-client", "user")
	if got := DefaultStorePath(); got != want {
		t.Errorf("DefaultStorePath() = %q, want %q", got, want)
	}

	cfg, err := LoadWithDefaults("")
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if cfg.Store.Path != want {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, want)
	}
}

func TestStoreMemoryOptIn(t *testing.T) {
	cfg, err := Parse([]byte("store:\n  memory: true\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cfg.applyDefaults()

	if !cfg.Store.Memory {
		t.Error("Store.Memory = false, want true")
	}
	if cfg.Store.Path != "" {
		t.Errorf("Store.Path = %q, want empty for memory store", cfg.Store.Path)
	}
}

func TestLoadWithDefaults_NoFile(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("backend: [unterminated")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestValidate(t *testing.T) {
	valid := func() ClientConfig {
		cfg := ClientConfig{}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *ClientConfig) {},
			wantErr: "",
		},
		{
			name:    "missing aggregate url",
			mutate:  func(c *ClientConfig) { c.Backend.AggregateURL = "" },
			wantErr: "backend.aggregate_url is required",
		},
		{
			name:    "bad projection scheme",
			mutate:  func(c *ClientConfig) { c.Backend.ProjectionURL = "ftp://projection" },
			wantErr: `backend.projection_url has unsupported scheme "ftp"`,
		},
		{
			name:    "websocket url optional",
			mutate:  func(c *ClientConfig) { c.Backend.WebsocketURL = "" },
			wantErr: "",
		},
		{
			name:    "pong timeout too short",
			mutate:  func(c *ClientConfig) { c.Live.PongTimeout = c.Live.PingInterval },
			wantErr: "live.pong_timeout (30s) must exceed ping_interval (30s)",
		},
		{
			name:    "archive requires host",
			mutate:  func(c *ClientConfig) { c.Archive.Enabled = true },
			wantErr: "archive.database.host is required",
		},
		{
			name: "archive min_conns exceeds max_conns",
			mutate: func(c *ClientConfig) {
				c.Archive.Enabled = true
				c.Archive.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "archive.database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "bad log level",
			mutate:  func(c *ClientConfig) { c.Log.Level = "loud" },
			wantErr: `log.level must be one of debug, info, warn, error, got "loud"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
