package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rickgao/chat-client/internal/model"
)

// ErrInvalidChatID is returned for an empty or "undefined" chat id.
var ErrInvalidChatID = errors.New("invalid chat id")

// ValidChatID reports whether id can be sent to the projection. Browsers
// produce "undefined" for a route parameter that was never filled in.
func ValidChatID(id string) bool {
	return id != "" && id != "undefined"
}

// ListChats fetches the chats a user participates in.
func (c *Client) ListChats(ctx context.Context, userID string) (*model.ChatList, error) {
	query := url.Values{}
	query.Set("user_id", userID)

	var resp model.ChatList
	if err := c.get(ctx, "/chats", query, &resp); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	return &resp, nil
}

// GetChat fetches a chat's message history, newest first.
func (c *Client) GetChat(ctx context.Context, chatID string) (*model.ChatHistory, error) {
	if !ValidChatID(chatID) {
		return nil, ErrInvalidChatID
	}

	var resp model.ChatHistory
	if err := c.get(ctx, "/chats/"+url.PathEscape(chatID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	if resp.ChatID == "" {
		resp.ChatID = chatID
	}

	return &resp, nil
}
