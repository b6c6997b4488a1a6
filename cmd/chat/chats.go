package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickgao/chat-client/internal/model"
)

func newChatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List the current user's chats",
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

			list, err := a.projection().ListChats(cmd.Context(), user.HashedUsername)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range list.Chats {
				fmt.Fprintf(out, "%s\t%s\n", c.ChatID, c.Subject)
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <chat-id>",
		Short: "Print a chat's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			// Identity only marks own messages; history is readable without it.
			user, err := a.currentUser()
			if err != nil && !errors.Is(err, errNotLoggedIn) {
				return err
			}

			history, err := a.projection().GetChat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), history.Messages, user)
			return nil
		},
	}
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <chat-id> <message>...",
		Short: "Send a message to a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			user, err := a.currentUser()
			if err != nil {
				return err
			}

			resp, err := a.aggregate().SendChatMessage(cmd.Context(), model.SendChatMessageRequest{
				ChatID:   args[0],
				Message:  strings.Join(args[1:], " "),
				Username: user.Username,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", resp.Data.MessageID)
			return nil
		},
	}
}

// printHistory writes newest-first messages in reading order.
func printHistory(w io.Writer, newestFirst []model.ChatMessage, user model.UserState) {
	for i := len(newestFirst) - 1; i >= 0; i-- {
		printMessage(w, newestFirst[i], user)
	}
}

func printMessage(w io.Writer, msg model.ChatMessage, user model.UserState) {
	who := msg.SentBy
	if user.IsMine(msg) {
		who = "me"
	}
	fmt.Fprintf(w, "[%s] %s\n", who, msg.Message)
}
