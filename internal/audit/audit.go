// Package audit persists the append-only, totally ordered log of decisions
// in SQLite and fans completed records out to live subscribers.
package audit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskgate/taskgate/internal/pipeline"
)

// Record is one immutable audit log entry. Seq is the total order of
// appends; it only ever grows.
type Record struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Seq       uint64    `gorm:"uniqueIndex;not null" json:"seq"`
	Prompt    string    `gorm:"type:text" json:"prompt"`
	TaskType  string    `gorm:"size:64;index" json:"task_type"`
	Persona   string    `gorm:"size:64;index" json:"persona"`
	Resource  string    `gorm:"size:64" json:"resource"`
	Operation string    `gorm:"size:16" json:"operation"`
	Outcome   string    `gorm:"size:8;index" json:"outcome"`
	Reason    string    `gorm:"size:64" json:"reason"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Open opens an SQLite database at dbPath and auto-migrates the audit model.
// Pass ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode so audit reads proceed concurrently with appends.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		slog.Warn("failed to enable WAL mode", "error", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("auto-migrating audit model: %w", err)
	}

	slog.Info("audit database initialized", "path", dbPath)
	return db, nil
}

// Log is the append-only decision log. Appends are serialized by a single
// mutex so sequence numbers match append order exactly; reads never take it.
type Log struct {
	db       *gorm.DB
	failures atomic.Uint64

	mu  sync.Mutex
	seq uint64

	subMu sync.Mutex
	subs  map[chan Record]struct{}
}

// NewLog creates a Log on top of an opened audit database, resuming the
// sequence counter from the highest persisted record.
func NewLog(db *gorm.DB) (*Log, error) {
	l := &Log{db: db, subs: make(map[chan Record]struct{})}

	var last Record
	err := db.Order("seq DESC").First(&last).Error
	switch {
	case err == nil:
		l.seq = last.Seq
	case errors.Is(err, gorm.ErrRecordNotFound):
		// empty log
	default:
		return nil, fmt.Errorf("reading last audit sequence: %w", err)
	}
	return l, nil
}

// Append persists a decision as the next record in the total order. It never
// returns an error: persistence failures are logged and counted so the
// health surface can report durability loss, but the caller's decision
// stands regardless.
func (l *Log) Append(d pipeline.Decision) {
	l.mu.Lock()
	l.seq++
	rec := Record{
		ID:        d.RequestID,
		Seq:       l.seq,
		Prompt:    d.Prompt,
		TaskType:  string(d.Task),
		Persona:   d.Persona,
		Resource:  string(d.Resource),
		Operation: string(d.Operation),
		Outcome:   d.Outcome.String(),
		Reason:    string(d.Reason),
		CreatedAt: d.Timestamp,
	}
	err := l.db.Create(&rec).Error
	l.mu.Unlock()

	if err != nil {
		l.failures.Add(1)
		slog.Error("audit append failed", "request_id", d.RequestID, "seq", rec.Seq, "error", err)
		return
	}

	l.notify(rec)
}

// Filter narrows a Query. Zero values are ignored.
type Filter struct {
	From     time.Time
	To       time.Time
	Persona  string
	Outcome  string
	AfterSeq uint64
	Limit    int
}

const maxQueryLimit = 500

// Query returns records matching the filter in sequence order. The read
// path never mutates the log.
func (l *Log) Query(f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	q := l.db.Model(&Record{})
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	if f.Persona != "" {
		q = q.Where("persona = ?", f.Persona)
	}
	if f.Outcome != "" {
		q = q.Where("outcome = ?", f.Outcome)
	}
	if f.AfterSeq > 0 {
		q = q.Where("seq > ?", f.AfterSeq)
	}

	var recs []Record
	if err := q.Order("seq ASC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	return recs, nil
}

// Subscribe registers a buffered channel that receives every record appended
// from now on. Slow subscribers drop records rather than block the append
// path.
func (l *Log) Subscribe(buffer int) chan Record {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Record, buffer)
	l.subMu.Lock()
	l.subs[ch] = struct{}{}
	l.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (l *Log) Unsubscribe(ch chan Record) {
	l.subMu.Lock()
	if _, ok := l.subs[ch]; ok {
		delete(l.subs, ch)
		close(ch)
	}
	l.subMu.Unlock()
}

func (l *Log) notify(rec Record) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- rec:
		default:
			slog.Warn("audit subscriber lagging, dropping record", "seq", rec.Seq)
		}
	}
}

// FailureCount returns the number of appends that failed to persist.
func (l *Log) FailureCount() uint64 {
	return l.failures.Load()
}

// Healthy reports whether every append so far has persisted.
func (l *Log) Healthy() bool {
	return l.failures.Load() == 0
}
