package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/ghostgym/internal/models"
)

// CreateShare snapshots a workout under a fresh share token. expiresAt
// may be nil for a share that never expires.
func (db *DB) CreateShare(ctx context.Context, userID uuid.UUID, creatorName string, w models.Workout, expiresAt *time.Time) (*models.SharedWorkout, error) {
	doc, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding shared workout doc: %w", err)
	}

	share := &models.SharedWorkout{
		Token:       uuid.NewString(),
		Workout:     w,
		CreatorName: creatorName,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO shared_workouts (token, user_id, workout_id, creator_name, doc, created_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		share.Token, userID, w.ID, creatorName, doc, share.CreatedAt, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("inserting share: %w", err)
	}
	return share, nil
}

// GetShare resolves a share token. Missing and expired tokens are both
// ErrNotFound; callers cannot tell the two apart.
func (db *DB) GetShare(ctx context.Context, token string) (*models.SharedWorkout, error) {
	var (
		doc         []byte
		creatorName string
		createdAt   time.Time
		expiresAt   *time.Time
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT doc, creator_name, created_at, expires_at FROM shared_workouts
		 WHERE token = $1 AND (expires_at IS NULL OR expires_at > now())`, token).
		Scan(&doc, &creatorName, &createdAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying share: %w", err)
	}

	share := &models.SharedWorkout{
		Token:       token,
		CreatorName: creatorName,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}
	if err := json.Unmarshal(doc, &share.Workout); err != nil {
		return nil, fmt.Errorf("decoding shared workout doc: %w", err)
	}
	return share, nil
}

// DeleteShare revokes a share. Only the creator may delete; a token owned
// by someone else reads as not found.
func (db *DB) DeleteShare(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM shared_workouts WHERE token = $1 AND user_id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("deleting share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
