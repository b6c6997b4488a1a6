package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/chat-client/internal/model"
)

// Schema creates the archive table.
const Schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	message_id  TEXT PRIMARY KEY,
	chat_id     TEXT NOT NULL,
	sent_by     TEXT NOT NULL,
	message     TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
)`

const insertMessage = `
INSERT INTO chat_messages (message_id, chat_id, sent_by, message, received_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (message_id) DO NOTHING`

// DB is the subset of *pgxpool.Pool the writer uses.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Execer runs a single statement. Satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the archive table if it does not exist.
func EnsureSchema(ctx context.Context, db Execer) error {
	_, err := db.Exec(ctx, Schema)
	return err
}

// Config controls batching.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns the default batching settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// Stats counts writer activity.
type Stats struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}

type row struct {
	MessageID  string
	ChatID     string
	SentBy     string
	Message    string
	ReceivedAt time.Time
}

// Writer batches chat messages into the chat_messages table.
type Writer struct {
	cfg    Config
	logger *slog.Logger
	db     DB

	input *queue[row]

	// Batching
	batch   []row
	batchMu sync.Mutex

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	consumed chan struct{}
	flushed  chan struct{}

	stats Stats
}

// NewWriter creates a Writer. Call Start before adding messages.
func NewWriter(cfg Config, db DB, logger *slog.Logger) *Writer {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  newQueue[row](cfg.BatchSize),
		batch:  make([]row, 0, cfg.BatchSize),
	}
}

// Start begins consuming messages and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.consumed = make(chan struct{})
	w.flushed = make(chan struct{})

	go w.consumeLoop()
	go w.flushLoop()

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains pending messages, writes them, and shuts the writer down.
// Messages added after Stop are rejected.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

	w.input.close()

	if w.consumed != nil {
		select {
		case <-w.consumed:
		case <-ctx.Done():
			w.logger.Warn("archive writer stop timed out", "pending", w.input.len())
		}
	}

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushed != nil {
		<-w.flushed
	}

	w.flush(ctx)
	w.logger.Info("archive writer stopped")
	return ctx.Err()
}

// Add queues msg for chatID. It never blocks and returns false once the
// writer is stopped.
func (w *Writer) Add(chatID string, msg model.ChatMessage) bool {
	return w.input.push(row{
		MessageID:  msg.MessageID,
		ChatID:     chatID,
		SentBy:     msg.SentBy,
		Message:    msg.Message,
		ReceivedAt: time.Now().UTC(),
	})
}

// Sink returns a message handler that archives into chatID.
func (w *Writer) Sink(chatID string) func(model.ChatMessage) {
	return func(msg model.ChatMessage) {
		if !w.Add(chatID, msg) {
			w.logger.Debug("archive closed, dropping message", "message_id", msg.MessageID)
		}
	}
}

// Stats returns current counters.
func (w *Writer) Stats() Stats {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.stats
}

func (w *Writer) consumeLoop() {
	defer close(w.consumed)

	for {
		r, ok := w.input.pop()
		if !ok {
			return
		}
		w.handle(r)
	}
}

func (w *Writer) flushLoop() {
	defer close(w.flushed)

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *Writer) handle(r row) {
	if r.MessageID == "" {
		w.logger.Warn("skipping message without id", "chat_id", r.ChatID)
		return
	}

	w.batchMu.Lock()
	w.batch = append(w.batch, r)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]row, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.stats.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.stats.Inserts += int64(len(batch) - conflicts)
	w.stats.Conflicts += int64(conflicts)
	w.stats.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed messages",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(ctx context.Context, rows []row) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertMessage, r.MessageID, r.ChatID, r.SentBy, r.Message, r.ReceivedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
