package model

// -----------------------------------------------------------------------------
// Projection (query side)
// -----------------------------------------------------------------------------

// ChatMessage is a single message in a chat, as pushed over the live
// transport and returned in chat history.
type ChatMessage struct {
	Message   string `json:"message"`    // Message text
	SentBy    string `json:"sent_by"`    // Hashed user id of the sender
	MessageID string `json:"message_id"` // Unique message id
}

// Chat is a chat the user participates in.
type Chat struct {
	ChatID  string `json:"chat_id"`
	Subject string `json:"subject"`
}

// ChatList is the projection's response for a user's chats.
type ChatList struct {
	Chats []Chat `json:"chats"`
}

// ChatHistory is the projection's response for a single chat.
type ChatHistory struct {
	ChatID   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"` // Newest first
}

// -----------------------------------------------------------------------------
// Aggregate (command side)
// -----------------------------------------------------------------------------

// Envelope wraps every aggregate response.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// CreateChatRequest asks the aggregate to create a chat for a user.
type CreateChatRequest struct {
	Username string `json:"username"`
	Subject  string `json:"subject,omitempty"`
}

// CreatedChat is the payload of a successful create-chat command.
type CreatedChat struct {
	UserID string `json:"user_id"` // Hashed user id assigned to the username
	ChatID string `json:"chat_id"`
}

// SendChatMessageRequest posts a message to a chat.
type SendChatMessageRequest struct {
	ChatID   string `json:"chat_id"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// SentMessage is the payload of a successful send-chat-message command.
type SentMessage struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"` // Hashed sender id
	ChatID    string `json:"chat_id"`
	Message   string `json:"message"`
}

// Validate checks the fields the aggregate requires.
func (r SendChatMessageRequest) Validate() error {
	switch {
	case r.ChatID == "":
		return ErrMissingChatID
	case r.Message == "":
		return ErrEmptyMessage
	case r.Username == "":
		return ErrMissingUsername
	}
	return nil
}

// Validate checks the fields the aggregate requires.
func (r CreateChatRequest) Validate() error {
	if r.Username == "" {
		return ErrMissingUsername
	}
	return nil
}

// -----------------------------------------------------------------------------
// Client state
// -----------------------------------------------------------------------------

// UserState is the local user's identity, persisted between sessions.
type UserState struct {
	Username       string `json:"username"`
	HashedUsername string `json:"hashed_username"` // Matches ChatMessage.SentBy for own messages
}

// IsMine reports whether msg was sent by this user.
func (u UserState) IsMine(msg ChatMessage) bool {
	return u.HashedUsername != "" && msg.SentBy == u.HashedUsername
}
