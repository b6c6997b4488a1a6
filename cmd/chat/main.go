package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/chat-client/internal/api"
	"github.com/rickgao/chat-client/internal/config"
	"github.com/rickgao/chat-client/internal/connection"
	"github.com/rickgao/chat-client/internal/userstore"
	"github.com/rickgao/chat-client/internal/version"
)

var errNotLoggedIn = errors.New("not logged in, run: chat login <username>")

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "chat",
		Short:         "Command-line client for the chat service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("CHAT_CONFIG"), "path to config file (defaults only when empty)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config is expanded")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level from config")

	root.AddCommand(
		newServeCmd(opts),
		newListenCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newChatsCmd(opts),
		newHistoryCmd(opts),
		newSendCmd(opts),
		newVersionCmd(),
	)
	return root
}

// app bundles what every subcommand needs once config is loaded.
type app struct {
	cfg    *config.ClientConfig
	logger *slog.Logger
}

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithDefaults(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"version", version.Version,
		"config", opts.configPath,
		"aggregate_url", cfg.Backend.AggregateURL,
		"projection_url", cfg.Backend.ProjectionURL,
	)
	return &app{cfg: cfg, logger: logger}, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (a *app) projection() *api.Client {
	return a.newClient(a.cfg.Backend.ProjectionURL)
}

func (a *app) aggregate() *api.Client {
	return a.newClient(a.cfg.Backend.AggregateURL)
}

func (a *app) newClient(baseURL string) *api.Client {
	return api.NewClient(baseURL,
		api.WithLogger(a.logger),
		api.WithTimeout(a.cfg.Backend.Timeout),
		api.WithRetries(a.cfg.Backend.MaxRetries, a.cfg.Backend.RetryBackoff),
	)
}

func (a *app) openStore() (*userstore.Store, error) {
	if a.cfg.Store.Memory {
		a.logger.Warn("user store is in memory, identity will not persist")
		return userstore.OpenMemory(), nil
	}
	store, err := userstore.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	return store, nil
}

func (a *app) liveConfig() connection.Config {
	live := a.cfg.Live
	return connection.Config{
		ReconnectDelay:   live.ReconnectDelay,
		HandshakeTimeout: live.HandshakeTimeout,
		PingInterval:     live.PingInterval,
		PongTimeout:      live.PongTimeout,
		WriteTimeout:     live.WriteTimeout,
	}
}
