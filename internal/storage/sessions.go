package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/ghostgym/internal/models"
)

// CompleteSession finalizes an active session into a history record and
// stores it. Duration is computed server-side from the timestamps.
func (db *DB) CompleteSession(ctx context.Context, userID uuid.UUID, sess models.Session) (*models.CompletedSession, error) {
	now := time.Now().UTC()
	completed := models.CompletedSession{
		ID:          sess.ID,
		WorkoutID:   sess.WorkoutID,
		WorkoutName: sess.WorkoutName,
		StartedAt:   sess.StartedAt,
		CompletedAt: now,
		DurationSec: int(now.Sub(sess.StartedAt) / time.Second),
		Exercises:   sess.Exercises,
	}
	if completed.ID == "" {
		completed.ID = "session-" + uuid.NewString()
	}

	doc, err := json.Marshal(completed)
	if err != nil {
		return nil, fmt.Errorf("encoding session doc: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO completed_sessions (id, user_id, workout_id, workout_name, started_at, completed_at, duration_sec, doc)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		completed.ID, userID, completed.WorkoutID, completed.WorkoutName,
		completed.StartedAt, completed.CompletedAt, completed.DurationSec, doc)
	if err != nil {
		return nil, fmt.Errorf("inserting completed session: %w", err)
	}
	return &completed, nil
}

// QuerySessions returns a user's completed sessions, newest first.
func (db *DB) QuerySessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.CompletedSession, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT doc FROM completed_sessions WHERE user_id = $1 ORDER BY completed_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.CompletedSession
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		var s models.CompletedSession
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("decoding session doc: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
