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
	"github.com/claude/ghostgym/internal/store"
)

const defaultWorkoutPageSize = 50

// ListWorkouts retrieves one page of a user's workouts, newest-modified
// first, with optional substring search and tag filtering. The second
// return value is the total match count before pagination.
func (db *DB) ListWorkouts(ctx context.Context, userID uuid.UUID, opts store.ListOptions) ([]models.Workout, int, error) {
	where := `user_id = $1`
	args := []any{userID}

	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if len(opts.Tags) > 0 {
		args = append(args, opts.Tags)
		where += fmt.Sprintf(` AND tags && $%d`, len(args))
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM workouts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting workouts: %w", err)
	}

	limit, offset := pageWindow(opts, defaultWorkoutPageSize)
	args = append(args, limit, offset)
	rows, err := db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT doc FROM workouts WHERE %s ORDER BY modified_date DESC LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, fmt.Errorf("scanning workout: %w", err)
		}
		var w models.Workout
		if err := json.Unmarshal(doc, &w); err != nil {
			return nil, 0, fmt.Errorf("decoding workout doc: %w", err)
		}
		result = append(result, w)
	}
	return result, total, rows.Err()
}

// GetWorkout retrieves a single workout owned by the user.
func (db *DB) GetWorkout(ctx context.Context, userID uuid.UUID, id string) (*models.Workout, error) {
	var doc []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT doc FROM workouts WHERE id = $1 AND user_id = $2`, id, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	var w models.Workout
	if err := json.Unmarshal(doc, &w); err != nil {
		return nil, fmt.Errorf("decoding workout doc: %w", err)
	}
	return &w, nil
}

// CreateWorkout inserts a workout. A client-supplied ID is preserved
// (migration and offline replay depend on that); otherwise the server
// assigns one. Both timestamps are stamped server-side.
func (db *DB) CreateWorkout(ctx context.Context, userID uuid.UUID, w models.Workout) (*models.Workout, error) {
	if w.ID == "" {
		w.ID = "workout-" + uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedDate = now
	w.ModifiedDate = now
	w.IsTemplate = true

	if err := db.insertWorkout(ctx, userID, w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (db *DB) insertWorkout(ctx context.Context, userID uuid.UUID, w models.Workout) error {
	doc, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding workout doc: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, description, tags, doc, created_date, modified_date, is_template)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		w.ID, userID, w.Name, w.Description, w.Tags, doc, w.CreatedDate, w.ModifiedDate, w.IsTemplate)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// UpdateWorkout replaces a workout's document, preserving the stored
// created_date and stamping modified_date.
func (db *DB) UpdateWorkout(ctx context.Context, userID uuid.UUID, w models.Workout) (*models.Workout, error) {
	current, err := db.GetWorkout(ctx, userID, w.ID)
	if err != nil {
		return nil, err
	}
	w.CreatedDate = current.CreatedDate
	w.ModifiedDate = time.Now().UTC()

	doc, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding workout doc: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET name = $1, description = $2, tags = $3, doc = $4, modified_date = $5
		 WHERE id = $6 AND user_id = $7`,
		w.Name, w.Description, w.Tags, doc, w.ModifiedDate, w.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("updating workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &w, nil
}

// DeleteWorkout removes a workout. Deleting an absent ID is ErrNotFound.
func (db *DB) DeleteWorkout(ctx context.Context, userID uuid.UUID, id string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// pageWindow converts ListOptions into SQL limit/offset.
func pageWindow(opts store.ListOptions, def int) (limit, offset int) {
	size := opts.PageSize
	if size <= 0 {
		size = def
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}
