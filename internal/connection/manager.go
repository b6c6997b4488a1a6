package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures a Manager.
type Option[T any] func(*Manager[T])

// WithLogger sets the logger.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(m *Manager[T]) {
		m.logger = logger
	}
}

// WithDialer replaces the default WebSocket dialer.
func WithDialer[T any](d Dialer) Option[T] {
	return func(m *Manager[T]) {
		m.dialer = d
	}
}

// WithMessageHandler sets the subscriber that receives every decoded message,
// in the order frames arrived.
func WithMessageHandler[T any](fn func(T)) Option[T] {
	return func(m *Manager[T]) {
		m.onMessage = fn
	}
}

// WithStateHandler sets a callback invoked on every state report.
func WithStateHandler[T any](fn func(State)) Option[T] {
	return func(m *Manager[T]) {
		m.onState = fn
	}
}

// WithDecodeErrorHandler sets a diagnostic callback for frames that fail
// to decode. Such frames are otherwise dropped without a trace.
func WithDecodeErrorHandler[T any](fn func(data []byte, err error)) Option[T] {
	return func(m *Manager[T]) {
		m.onDecodeError = fn
	}
}

// Manager maintains exactly one live connection while an endpoint is set
// and publishes decoded messages of type T.
//
// Callbacks run on the manager's connection goroutine, except the CLOSED
// report that follows a local teardown, which runs inside SetEndpoint or
// Close. Callbacks must not call SetEndpoint or Close; the read accessors
// (Endpoint, State, Latest) are safe.
type Manager[T any] struct {
	cfg    Config
	logger *slog.Logger
	dialer Dialer

	onMessage     func(T)
	onState       func(State)
	onDecodeError func([]byte, error)

	// Lifecycle (guards endpoint switches and teardown)
	mu     sync.Mutex
	active *cycle
	closed bool

	// Published values. endpoint is written with both mu and valueMu held,
	// so either lock is enough to read it.
	valueMu   sync.RWMutex
	endpoint  string
	state     State
	hasState  bool
	latest    T
	hasLatest bool
}

// cycle is one connect/read/reconnect loop bound to a single endpoint.
type cycle struct {
	endpoint string
	cancel   context.CancelFunc
	done     chan struct{}

	connMu   sync.Mutex
	conn     Conn
	tearDown bool
}

// NewManager creates a Connection Manager with no endpoint.
func NewManager[T any](cfg Config, opts ...Option[T]) *Manager[T] {
	cfg.applyDefaults()

	m := &Manager[T]{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.dialer == nil {
		m.dialer = NewWebsocketDialer(cfg, m.logger)
	}

	return m
}

// SetEndpoint points the manager at a new endpoint. An empty endpoint tears
// down any connection and attempts nothing. Setting the current endpoint
// again is a no-op. Returns once the previous connection is fully torn down.
func (m *Manager[T]) SetEndpoint(endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrAlreadyClosed
	}
	if endpoint == m.endpoint {
		return nil
	}

	m.teardown()
	m.setEndpoint(endpoint)

	if endpoint == "" {
		m.logger.Debug("endpoint cleared")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &cycle{
		endpoint: endpoint,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	m.active = c

	go m.run(ctx, c)

	m.logger.Info("live connection started", "endpoint", endpoint)
	return nil
}

// Endpoint returns the current endpoint ("" if none).
func (m *Manager[T]) Endpoint() string {
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.endpoint
}

// State returns the last reported connection state. The bool is false until
// a state has been reported.
func (m *Manager[T]) State() (State, bool) {
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.state, m.hasState
}

// Latest returns the most recently decoded message. The bool is false until
// a message has been received.
func (m *Manager[T]) Latest() (T, bool) {
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.latest, m.hasLatest
}

// Close disposes the manager. The active connection is closed with a
// normal-closure code and no reconnect fires afterwards.
func (m *Manager[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.teardown()
	m.setEndpoint("")

	m.logger.Debug("connection manager closed")
	return nil
}

// teardown stops the active cycle and waits for its goroutine to exit.
// Caller must hold m.mu.
func (m *Manager[T]) teardown() {
	c := m.active
	if c == nil {
		return
	}
	m.active = nil

	c.cancel()

	c.connMu.Lock()
	c.tearDown = true
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn != nil {
		if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
			m.logger.Debug("close during teardown", "endpoint", c.endpoint, "error", err)
		}
	}

	<-c.done
	m.logger.Debug("live connection torn down", "endpoint", c.endpoint)

	m.reportLocalClose()
}

// reportLocalClose reports CLOSED after a teardown. Nothing is reported if
// no state was ever published or the last report was already CLOSED.
func (m *Manager[T]) reportLocalClose() {
	m.valueMu.RLock()
	report := m.hasState && m.state != StateClosed
	m.valueMu.RUnlock()

	if report {
		m.setState(StateClosed)
	}
}

func (m *Manager[T]) setEndpoint(endpoint string) {
	m.valueMu.Lock()
	m.endpoint = endpoint
	m.valueMu.Unlock()
}

// run connects, reads until failure, then waits the fixed delay and retries.
func (m *Manager[T]) run(ctx context.Context, c *cycle) {
	defer close(c.done)

	for {
		m.connectAndRead(ctx, c)

		if !m.waitReconnect(ctx, c.endpoint) {
			return
		}
	}
}

// connectAndRead performs one connection attempt and reads frames until the
// connection ends. Reports OPEN, CLOSED or ERROR unless torn down.
func (m *Manager[T]) connectAndRead(ctx context.Context, c *cycle) {
	conn, err := m.dialer.Dial(ctx, c.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("live connection failed", "endpoint", c.endpoint, "error", err)
		m.setState(StateError)
		return
	}

	if !c.attach(conn) {
		conn.Close(websocket.CloseNormalClosure, "")
		return
	}
	m.setState(StateOpen)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if !c.detach(conn) || ctx.Err() != nil {
				return
			}
			conn.Close(websocket.CloseNormalClosure, "")

			if IsCloseError(err) {
				m.logger.Info("live connection closed", "endpoint", c.endpoint, "reason", err)
				m.setState(StateClosed)
			} else {
				m.logger.Warn("live connection error", "endpoint", c.endpoint, "error", err)
				m.setState(StateError)
			}
			return
		}

		if ctx.Err() != nil {
			return
		}
		m.dispatch(data)
	}
}

// waitReconnect blocks for the reconnect delay. Returns false if the cycle
// was torn down first.
func (m *Manager[T]) waitReconnect(ctx context.Context, endpoint string) bool {
	m.logger.Debug("scheduling reconnect", "endpoint", endpoint, "delay", m.cfg.ReconnectDelay)

	timer := time.NewTimer(m.cfg.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return ctx.Err() == nil
	}
}

// dispatch decodes a frame and publishes it. Undecodable frames are dropped.
func (m *Manager[T]) dispatch(data []byte) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		if m.onDecodeError != nil {
			m.onDecodeError(data, err)
		}
		return
	}

	m.valueMu.Lock()
	m.latest = msg
	m.hasLatest = true
	m.valueMu.Unlock()

	if m.onMessage != nil {
		m.onMessage(msg)
	}
}

func (m *Manager[T]) setState(s State) {
	m.valueMu.Lock()
	m.state = s
	m.hasState = true
	m.valueMu.Unlock()

	if m.onState != nil {
		m.onState(s)
	}
}

// attach records the live connection. Returns false if the cycle was torn
// down while dialing.
func (c *cycle) attach(conn Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.tearDown {
		return false
	}
	c.conn = conn
	return true
}

// detach forgets conn. Returns false if teardown already claimed it.
func (c *cycle) detach(conn Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != conn {
		return false
	}
	c.conn = nil
	return true
}
