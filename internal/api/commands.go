package api

import (
	"context"
	"fmt"

	"github.com/rickgao/chat-client/internal/model"
)

// CreateChat asks the aggregate to create a chat for the user.
func (c *Client) CreateChat(ctx context.Context, req model.CreateChatRequest) (*model.Envelope[model.CreatedChat], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp model.Envelope[model.CreatedChat]
	if err := c.post(ctx, "/create-chat", req, &resp); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	return &resp, nil
}

// SendChatMessage posts a message to a chat. The request is sent once.
func (c *Client) SendChatMessage(ctx context.Context, req model.SendChatMessageRequest) (*model.Envelope[model.SentMessage], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp model.Envelope[model.SentMessage]
	if err := c.post(ctx, "/send-chat-message", req, &resp); err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}

	c.logger.Debug("chat message sent",
		"chat_id", req.ChatID,
		"message_id", resp.Data.MessageID,
	)
	return &resp, nil
}
