package main

import (
	"github.com/spf13/cobra"

	"github.com/rickgao/chat-client/internal/database"
	"github.com/rickgao/chat-client/internal/gateway"
	"github.com/rickgao/chat-client/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway in front of the chat backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a.logger.Info("starting gateway",
				"version", version.Version,
				"commit", version.Commit,
				"addr", a.cfg.Gateway.Addr,
			)

			gwOpts := []gateway.Option{gateway.WithLogger(a.logger)}
			if a.cfg.Archive.Enabled {
				pool, err := database.Connect(ctx, a.cfg.Archive.Database)
				if err != nil {
					return err
				}
				defer pool.Close()
				gwOpts = append(gwOpts, gateway.WithHealthCheck("archive", pool.Ping))
			}

			srv := gateway.New(gateway.Config{
				Addr:            a.cfg.Gateway.Addr,
				WebsocketURL:    a.cfg.Backend.WebsocketURL,
				ReadTimeout:     a.cfg.Gateway.ReadTimeout,
				ShutdownTimeout: a.cfg.Gateway.ShutdownTimeout,
			}, a.projection(), a.aggregate(), gwOpts...)

			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			a.logger.Info("gateway stopped")
			return nil
		},
	}
}
