package archive

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/chat-client/internal/model"
)

// fakeDB records queued inserts and reports a conflict for any message id
// it has already stored.
type fakeDB struct {
	mu      sync.Mutex
	stored  map[string]bool
	batches int
	rows    [][]any
	err     error
}

func newFakeDB() *fakeDB {
	return &fakeDB{stored: make(map[string]bool)}
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches++
	res := &fakeResults{err: f.err}
	for _, q := range b.QueuedQueries {
		f.rows = append(f.rows, q.Arguments)
		id := q.Arguments[0].(string)
		if f.stored[id] {
			res.tags = append(res.tags, pgconn.NewCommandTag("INSERT 0 0"))
			continue
		}
		f.stored[id] = true
		res.tags = append(res.tags, pgconn.NewCommandTag("INSERT 0 1"))
	}
	return res
}

func (f *fakeDB) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches
}

func (f *fakeDB) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeResults struct {
	tags []pgconn.CommandTag
	next int
	err  error
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	ct := r.tags[r.next]
	r.next++
	return ct, nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row          { return nil }
func (r *fakeResults) Close() error               { return nil }

func chatMsg(id string) model.ChatMessage {
	return model.ChatMessage{Message: "hello " + id, SentBy: "u1", MessageID: id}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func startWriter(t *testing.T, cfg Config, db DB) *Writer {
	t.Helper()
	w := NewWriter(cfg, db, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return w
}

func TestWriter_FlushOnBatchSize(t *testing.T) {
	db := newFakeDB()
	w := startWriter(t, Config{BatchSize: 2, FlushInterval: time.Hour}, db)
	defer w.Stop(context.Background())

	w.Add("chat-1", chatMsg("m1"))
	w.Add("chat-1", chatMsg("m2"))

	waitFor(t, time.Second, func() bool { return w.Stats().Inserts == 2 })

	if db.batchCount() != 1 {
		t.Errorf("batches = %d, want 1", db.batchCount())
	}
}

func TestWriter_FlushOnInterval(t *testing.T) {
	db := newFakeDB()
	w := startWriter(t, Config{BatchSize: 100, FlushInterval: 20 * time.Millisecond}, db)
	defer w.Stop(context.Background())

	w.Add("chat-1", chatMsg("m1"))

	waitFor(t, time.Second, func() bool { return db.rowCount() == 1 })
}

func TestWriter_StopFlushesPending(t *testing.T) {
	db := newFakeDB()
	w := startWriter(t, Config{BatchSize: 100, FlushInterval: time.Hour}, db)

	for _, id := range []string{"m1", "m2", "m3"} {
		if !w.Add("chat-1", chatMsg(id)) {
			t.Fatalf("Add(%s) returned false", id)
		}
	}

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if db.rowCount() != 3 {
		t.Errorf("rows = %d, want 3", db.rowCount())
	}
	if w.Add("chat-1", chatMsg("late")) {
		t.Error("Add after Stop should return false")
	}
}

func TestWriter_CountsConflicts(t *testing.T) {
	db := newFakeDB()
	w := startWriter(t, Config{BatchSize: 100, FlushInterval: time.Hour}, db)

	sink := w.Sink("chat-1")
	sink(chatMsg("m1"))
	sink(chatMsg("m1"))
	sink(chatMsg("m2"))

	w.Stop(context.Background())

	stats := w.Stats()
	if stats.Inserts != 2 {
		t.Errorf("Inserts = %d, want 2", stats.Inserts)
	}
	if stats.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", stats.Conflicts)
	}
	if stats.Flushes != 1 {
		t.Errorf("Flushes = %d, want 1", stats.Flushes)
	}
}

func TestWriter_InsertError(t *testing.T) {
	db := newFakeDB()
	db.err = errors.New("connection refused")
	w := startWriter(t, Config{BatchSize: 100, FlushInterval: time.Hour}, db)

	w.Add("chat-1", chatMsg("m1"))
	w.Stop(context.Background())

	stats := w.Stats()
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.Inserts != 0 {
		t.Errorf("Inserts = %d, want 0", stats.Inserts)
	}
}

func TestWriter_SkipsMessagesWithoutID(t *testing.T) {
	db := newFakeDB()
	w := startWriter(t, Config{BatchSize: 100, FlushInterval: time.Hour}, db)

	w.Add("chat-1", model.ChatMessage{Message: "no id"})
	w.Stop(context.Background())

	if db.rowCount() != 0 {
		t.Errorf("rows = %d, want 0", db.rowCount())
	}
}

func TestWriter_RowFields(t *testing.T) {
	db := newFakeDB()
	w := startWriter(t, Config{BatchSize: 100, FlushInterval: time.Hour}, db)

	w.Add("chat-9", model.ChatMessage{Message: "hi", SentBy: "hash-a", MessageID: "m1"})
	w.Stop(context.Background())

	if db.rowCount() != 1 {
		t.Fatalf("rows = %d, want 1", db.rowCount())
	}
	args := db.rows[0]
	if args[0] != "m1" || args[1] != "chat-9" || args[2] != "hash-a" || args[3] != "hi" {
		t.Errorf("args = %v", args[:4])
	}
	if _, ok := args[4].(time.Time); !ok {
		t.Errorf("received_at = %T, want time.Time", args[4])
	}
}

func TestWriter_StopWithoutStart(t *testing.T) {
	w := NewWriter(Config{}, newFakeDB(), nil)
	if err := w.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
