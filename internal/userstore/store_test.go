package userstore

import (
	"errors"
	"testing"

	"github.com/rickgao/chat-client/internal/model"
)

func testStore(t *testing.T, s *Store) {
	t.Helper()

	if _, ok, err := s.Get(); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v; want absent", ok, err)
	}

	want := model.UserState{Username: "alice", HashedUsername: "hash-a"}
	if err := s.Set(want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := s.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || got != want {
		t.Errorf("Get = %+v, %v; want %+v, true", got, ok, want)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := s.Get(); ok {
		t.Error("Get after Clear should be absent")
	}
}

func TestStore_Memory(t *testing.T) {
	testStore(t, OpenMemory())
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") should fail instead of falling back to memory")
	}
}

func TestStore_Pebble(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	testStore(t, s)
}

func TestStore_PebblePersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	want := model.UserState{Username: "bob", HashedUsername: "hash-b"}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Set(want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get()
	if err != nil || !ok {
		t.Fatalf("Get after reopen = ok %v, err %v", ok, err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestStore_CorruptRecord(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set([]byte(Key), []byte("{not json"))

	if _, _, err := New(kv).Get(); err == nil {
		t.Error("expected decode error for corrupt record")
	}
}

func TestMemoryKV_GetMissing(t *testing.T) {
	if _, err := NewMemoryKV().Get([]byte("nope")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	val := []byte("abc")
	kv.Set([]byte("k"), val)
	val[0] = 'x'

	got, _ := kv.Get([]byte("k"))
	if string(got) != "abc" {
		t.Errorf("Get = %q, want %q", got, "abc")
	}
}
