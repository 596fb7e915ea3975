// Package queue is the durable offline write queue: operations attempted
// while disconnected (or after a retryable remote failure) are stored in
// sqlite and replayed in order once the backend is reachable again.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Operation kinds.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// MaxAttempts is how many replay failures an operation survives before
// it is dropped.
const MaxAttempts = 3

// PendingOp is one queued write.
type PendingOp struct {
	ID         int64
	Collection string
	Op         string
	RecordID   string
	Record     json.RawMessage
	EnqueuedAt time.Time
	Attempts   int
}

// Queue persists pending operations at dir/queue.db.
type Queue struct {
	db *sql.DB
}

// Open opens (or creates) the queue database.
func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating queue dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening queue db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_ops (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		collection  TEXT NOT NULL,
		op          TEXT NOT NULL,
		record_id   TEXT NOT NULL,
		record      TEXT NOT NULL,
		enqueued_at TIMESTAMP NOT NULL,
		attempts    INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating pending_ops table: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the queue database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends an operation. record may be nil for deletes.
func (q *Queue) Enqueue(ctx context.Context, collection, op, recordID string, record any) error {
	doc := "null"
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding queued record: %w", err)
		}
		doc = string(data)
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO pending_ops (collection, op, record_id, record, enqueued_at) VALUES (?, ?, ?, ?, ?)`,
		collection, op, recordID, doc, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("enqueueing %s %s: %w", op, recordID, err)
	}
	return nil
}

// Pending returns all queued operations in FIFO order.
func (q *Queue) Pending(ctx context.Context) ([]PendingOp, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, collection, op, record_id, record, enqueued_at, attempts
		 FROM pending_ops ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying pending ops: %w", err)
	}
	defer rows.Close()

	var ops []PendingOp
	for rows.Next() {
		var op PendingOp
		var record string
		if err := rows.Scan(&op.ID, &op.Collection, &op.Op, &op.RecordID, &record, &op.EnqueuedAt, &op.Attempts); err != nil {
			return nil, fmt.Errorf("scanning pending op: %w", err)
		}
		op.Record = json.RawMessage(record)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Done removes a successfully replayed (or abandoned) operation.
func (q *Queue) Done(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pending_ops WHERE id = ?`, id)
	return err
}

// Retry bumps the attempt counter and reports whether the operation is
// still under the attempt cap. At the cap it is removed.
func (q *Queue) Retry(ctx context.Context, id int64) (kept bool, err error) {
	var attempts int
	err = q.db.QueryRowContext(ctx,
		`UPDATE pending_ops SET attempts = attempts + 1 WHERE id = ? RETURNING attempts`, id).Scan(&attempts)
	if err != nil {
		return false, fmt.Errorf("bumping attempts for op %d: %w", id, err)
	}
	if attempts >= MaxAttempts {
		return false, q.Done(ctx, id)
	}
	return true, nil
}

// Depth reports the number of queued operations.
func (q *Queue) Depth(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_ops`).Scan(&n)
	return n, err
}
