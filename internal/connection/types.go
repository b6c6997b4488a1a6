package connection

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Errors
var (
	ErrAlreadyClosed = errors.New("already closed")
	ErrEmptyChatID   = errors.New("chat id is required")
)

// State is the condition of the live transport.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateError
)

// String returns the upper-case name used in logs and CLI output.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DefaultReconnectDelay is the fixed wait between a failure and the next dial.
const DefaultReconnectDelay = 1 * time.Second

// Config configures a Manager.
type Config struct {
	ReconnectDelay   time.Duration // Fixed delay before each reconnect attempt
	HandshakeTimeout time.Duration // WebSocket handshake timeout
	PingInterval     time.Duration // Keepalive ping interval (0 = disabled)
	PongTimeout      time.Duration // Max time without pong before the read fails
	WriteTimeout     time.Duration // Write deadline for control frames
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:   DefaultReconnectDelay,
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PongTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval > 0 && c.PongTimeout <= c.PingInterval {
		c.PongTimeout = 2 * c.PingInterval
	}
}

// ChatStreamURL builds the message stream endpoint for a chat:
// <base>/ws/?chat_id=<id>.
func ChatStreamURL(base, chatID string) (string, error) {
	if chatID == "" {
		return "", ErrEmptyChatID
	}

	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.New("unsupported scheme: " + u.Scheme)
	}

	u.Path += "/ws/"
	q := u.Query()
	q.Set("chat_id", chatID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
