package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/chat-client/internal/model"
)

// Projection serves chat reads.
type Projection interface {
	ListChats(ctx context.Context, userID string) (*model.ChatList, error)
	GetChat(ctx context.Context, chatID string) (*model.ChatHistory, error)
}

// Aggregate accepts chat commands.
type Aggregate interface {
	CreateChat(ctx context.Context, req model.CreateChatRequest) (*model.Envelope[model.CreatedChat], error)
	SendChatMessage(ctx context.Context, req model.SendChatMessageRequest) (*model.Envelope[model.SentMessage], error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds gateway settings.
type Config struct {
	Addr            string
	WebsocketURL    string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthCheck adds a named component to /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// Server is the gateway HTTP server.
type Server struct {
	cfg        Config
	projection Projection
	aggregate  Aggregate
	logger     *slog.Logger
	checks     map[string]HealthCheck
	router     chi.Router
}

// New creates a gateway over the given backends.
func New(cfg Config, projection Projection, aggregate Aggregate, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		projection: projection,
		aggregate:  aggregate,
		logger:     slog.Default(),
		checks:     make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the gateway's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/chats", s.handleListChats)
		r.Get("/chats/", s.handleGetChat)
		r.Get("/chats/{id}", s.handleGetChat)
		r.Post("/create-chat", s.handleCreateChat)
		r.Post("/send-chat-message", s.handleSendChatMessage)
		r.Get("/websocket-url", s.handleWebsocketURL)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down gateway")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
