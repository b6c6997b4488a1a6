package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/chat-client/internal/version"
)

// Conn is a single live connection owned by the Manager.
type Conn interface {
	// ReadMessage blocks until the next frame arrives or the connection fails.
	ReadMessage() ([]byte, error)

	// Close sends a close frame with the given code and releases the connection.
	// Safe to call concurrently with ReadMessage.
	Close(code int, reason string) error
}

// Dialer opens connections to an endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, endpoint string) (Conn, error)

// Dial calls f(ctx, endpoint).
func (f DialerFunc) Dial(ctx context.Context, endpoint string) (Conn, error) {
	return f(ctx, endpoint)
}

// IsCloseError reports whether err means the peer (or we) closed the
// connection, as opposed to a transport failure.
func IsCloseError(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

// WebsocketDialer dials gorilla/websocket connections.
type WebsocketDialer struct {
	cfg    Config
	logger *slog.Logger
}

// NewWebsocketDialer creates a dialer using the handshake and keepalive
// settings from cfg.
func NewWebsocketDialer(cfg Config, logger *slog.Logger) *WebsocketDialer {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &WebsocketDialer{cfg: cfg, logger: logger}
}

// Dial establishes the WebSocket connection.
func (d *WebsocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{
		HandshakeTimeout: d.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, err
	}

	c := &wsConn{
		cfg:    d.cfg,
		logger: d.logger,
		conn:   conn,
		done:   make(chan struct{}),
	}

	if d.cfg.PingInterval > 0 {
		conn.SetReadDeadline(time.Now().Add(d.cfg.PongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(d.cfg.PongTimeout))
		})
		go c.heartbeatLoop()
	}

	d.logger.Debug("websocket connected", "url", endpoint)
	return c, nil
}

// wsConn implements Conn over a gorilla/websocket connection.
type wsConn struct {
	cfg    Config
	logger *slog.Logger
	conn   *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

// ReadMessage returns the payload of the next data frame.
func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close gracefully closes the connection.
func (c *wsConn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(c.cfg.WriteTimeout),
		)
		err = c.conn.Close()
	})
	return err
}

// heartbeatLoop sends keepalive pings. A missing pong surfaces as a read
// deadline error in ReadMessage.
func (c *wsConn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}
