package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/chat-client/internal/model"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Create a chat and remember the user locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			username := args[0]
			resp, err := a.aggregate().CreateChat(cmd.Context(), model.CreateChatRequest{
				Username: username,
				Subject:  subject,
			})
			if err != nil {
				return err
			}

			user := model.UserState{Username: username, HashedUsername: resp.Data.UserID}
			if err := store.Set(user); err != nil {
				return fmt.Errorf("save user: %w", err)
			}

			a.logger.Info("chat created", "chat_id", resp.Data.ChatID, "user_id", resp.Data.UserID)
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\nchat %s\n", username, resp.Data.ChatID)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject of the new chat")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the locally stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear user: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			user, err := a.currentUser()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, user.HashedUsername)
			return nil
		},
	}
}

// currentUser returns the stored user or errNotLoggedIn.
func (a *app) currentUser() (model.UserState, error) {
	store, err := a.openStore()
	if err != nil {
		return model.UserState{}, err
	}
	defer store.Close()

	user, ok, err := store.Get()
	if err != nil {
		return model.UserState{}, fmt.Errorf("read user: %w", err)
	}
	if !ok {
		return model.UserState{}, errNotLoggedIn
	}
	return user, nil
}
