package userstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rickgao/chat-client/internal/model"
)

// Key is the record the user identity is stored under.
const Key = "user-store"

// Store reads and writes the local UserState.
type Store struct {
	kv KV
}

// New creates a Store over kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Open returns a Pebble-backed Store at dir.
func Open(dir string) (*Store, error) {
	kv, err := OpenPebble(dir)
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}

// OpenMemory returns a Store that keeps the identity for the life of the
// process only.
func OpenMemory() *Store {
	return New(NewMemoryKV())
}

// Get returns the stored identity. ok is false until the first Set.
func (s *Store) Get() (user model.UserState, ok bool, err error) {
	data, err := s.kv.Get([]byte(Key))
	if errors.Is(err, ErrNotFound) {
		return model.UserState{}, false, nil
	}
	if err != nil {
		return model.UserState{}, false, err
	}

	if err := json.Unmarshal(data, &user); err != nil {
		return model.UserState{}, false, fmt.Errorf("decode user state: %w", err)
	}
	return user, true, nil
}

// Set replaces the stored identity.
func (s *Store) Set(user model.UserState) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user state: %w", err)
	}
	return s.kv.Set([]byte(Key), data)
}

// Clear removes the stored identity.
func (s *Store) Clear() error {
	return s.kv.Delete([]byte(Key))
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}
