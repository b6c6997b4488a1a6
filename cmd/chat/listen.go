package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/chat-client/internal/archive"
	"github.com/rickgao/chat-client/internal/connection"
	"github.com/rickgao/chat-client/internal/database"
	"github.com/rickgao/chat-client/internal/model"
	"github.com/rickgao/chat-client/internal/transcript"
)

func newListenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen <chat-id>",
		Short: "Print a chat's history, then follow live messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			return a.listen(cmd, args[0])
		},
	}
}

func (a *app) listen(cmd *cobra.Command, chatID string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	user, err := a.currentUser()
	if err != nil && !errors.Is(err, errNotLoggedIn) {
		return err
	}

	endpoint, err := connection.ChatStreamURL(a.cfg.Backend.WebsocketURL, chatID)
	if err != nil {
		return err
	}

	history, err := a.projection().GetChat(ctx, chatID)
	if err != nil {
		return err
	}

	tr := transcript.New(chatID)
	tr.Seed(history.Messages)
	printHistory(out, tr.Messages(), user)

	sinks := []func(model.ChatMessage){
		func(msg model.ChatMessage) {
			if tr.Append(msg) {
				printMessage(out, msg, user)
			}
		},
	}

	if a.cfg.Archive.Enabled {
		writer, stop, err := a.startArchive(ctx)
		if err != nil {
			return err
		}
		defer stop()
		sinks = append(sinks, writer.Sink(chatID))
	}

	mgr := connection.NewManager[model.ChatMessage](a.liveConfig(),
		connection.WithLogger[model.ChatMessage](a.logger),
		connection.WithMessageHandler(func(msg model.ChatMessage) {
			for _, sink := range sinks {
				sink(msg)
			}
		}),
		connection.WithStateHandler[model.ChatMessage](func(s connection.State) {
			a.logger.Info("live connection", "chat_id", chatID, "state", s.String())
		}),
		connection.WithDecodeErrorHandler[model.ChatMessage](func(data []byte, err error) {
			a.logger.Debug("dropping malformed frame", "chat_id", chatID, "bytes", len(data), "error", err)
		}),
	)
	defer mgr.Close()

	if err := mgr.SetEndpoint(endpoint); err != nil {
		return fmt.Errorf("connect live: %w", err)
	}

	a.logger.Info("listening", "chat_id", chatID, "endpoint", endpoint)
	<-ctx.Done()
	a.logger.Info("shutting down", "received", tr.Len())
	return nil
}

// startArchive connects to Postgres and starts a message writer. The
// returned func stops the writer and closes the pool.
func (a *app) startArchive(ctx context.Context) (*archive.Writer, func(), error) {
	dbCfg := a.cfg.Archive.Database
	a.logger.Info("connecting to database",
		"host", dbCfg.Host,
		"port", dbCfg.Port,
		"database", dbCfg.Name,
	)

	pool, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect archive: %w", err)
	}
	if err := archive.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create archive schema: %w", err)
	}

	writer := archive.NewWriter(archive.Config{
		BatchSize:     a.cfg.Archive.BatchSize,
		FlushInterval: a.cfg.Archive.FlushInterval,
	}, pool, a.logger)
	if err := writer.Start(context.WithoutCancel(ctx)); err != nil {
		pool.Close()
		return nil, nil, err
	}

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := writer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("archive stop", "error", err)
		}
		stats := writer.Stats()
		a.logger.Info("archive closed",
			"inserts", stats.Inserts,
			"conflicts", stats.Conflicts,
			"errors", stats.Errors,
		)
		pool.Close()
	}
	return writer, stop, nil
}
