package model

import "errors"

// Validation errors
var (
	ErrMissingChatID   = errors.New("chat_id is required")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrMissingUsername = errors.New("username is required")
)
