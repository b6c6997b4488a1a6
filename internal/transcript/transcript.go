// Package transcript holds the display list of a single chat: fetched
// history plus live messages, newest first.
package transcript

import (
	"sync"

	"github.com/rickgao/chat-client/internal/model"
)

// Transcript is a concurrency-safe message list.
type Transcript struct {
	mu       sync.RWMutex
	chatID   string
	messages []model.ChatMessage
	seen     map[string]struct{}
}

// New creates an empty transcript for chatID.
func New(chatID string) *Transcript {
	return &Transcript{
		chatID: chatID,
		seen:   make(map[string]struct{}),
	}
}

// ChatID returns the chat this transcript belongs to.
func (t *Transcript) ChatID() string {
	return t.chatID
}

// Seed replaces the contents with fetched history, which the projection
// already returns newest first.
func (t *Transcript) Seed(history []model.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = make([]model.ChatMessage, len(history))
	copy(t.messages, history)
	t.seen = make(map[string]struct{}, len(history))
	for _, m := range history {
		if m.MessageID != "" {
			t.seen[m.MessageID] = struct{}{}
		}
	}
}

// Append prepends a live message. A message whose id is already present is
// ignored and Append returns false.
func (t *Transcript) Append(msg model.ChatMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.MessageID != "" {
		if _, ok := t.seen[msg.MessageID]; ok {
			return false
		}
		t.seen[msg.MessageID] = struct{}{}
	}

	t.messages = append(t.messages, model.ChatMessage{})
	copy(t.messages[1:], t.messages)
	t.messages[0] = msg
	return true
}

// Messages returns a copy of the list, newest first.
func (t *Transcript) Messages() []model.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages held.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// IsMine reports whether msg was sent by user.
func IsMine(msg model.ChatMessage, user model.UserState) bool {
	return user.IsMine(msg)
}
