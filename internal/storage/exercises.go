package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/ghostgym/internal/models"
)

// ExerciseQuery narrows catalog reads. Zero value matches everything.
type ExerciseQuery struct {
	Search      string
	MuscleGroup string
	Equipment   string
}

// QueryExercises reads the global catalog (rows without an owner).
func (db *DB) QueryExercises(ctx context.Context, q ExerciseQuery) ([]models.Exercise, error) {
	where := `user_id IS NULL`
	args := []any{}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if q.MuscleGroup != "" {
		args = append(args, q.MuscleGroup)
		where += fmt.Sprintf(` AND target_muscle_group ILIKE $%d`, len(args))
	}
	if q.Equipment != "" {
		args = append(args, q.Equipment)
		where += fmt.Sprintf(` AND primary_equipment ILIKE $%d`, len(args))
	}

	return db.queryExercises(ctx, where, args, true)
}

// QueryUserExercises reads a user's custom catalog entries.
func (db *DB) QueryUserExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error) {
	return db.queryExercises(ctx, `user_id = $1`, []any{userID}, false)
}

func (db *DB) queryExercises(ctx context.Context, where string, args []any, global bool) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, target_muscle_group, primary_equipment, difficulty_level,
		 exercise_tier, is_foundational, popularity_score
		 FROM exercises WHERE `+where+` ORDER BY popularity_score DESC, name ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.TargetMuscleGroup, &e.PrimaryEquipment,
			&e.DifficultyLevel, &e.ExerciseTier, &e.IsFoundational, &e.PopularityScore); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		e.IsGlobal = global
		result = append(result, e)
	}
	return result, rows.Err()
}

// CreateUserExercise adds a custom catalog entry for the user.
func (db *DB) CreateUserExercise(ctx context.Context, userID uuid.UUID, e models.Exercise) (*models.Exercise, error) {
	if e.ID == "" {
		e.ID = "exercise-" + uuid.NewString()
	}
	e.IsGlobal = false

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, user_id, name, target_muscle_group, primary_equipment,
		 difficulty_level, exercise_tier, is_foundational, popularity_score)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, userID, e.Name, e.TargetMuscleGroup, e.PrimaryEquipment,
		e.DifficultyLevel, e.ExerciseTier, e.IsFoundational, e.PopularityScore)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise: %w", err)
	}
	return &e, nil
}

// QueryFavorites returns the user's favorited exercise IDs.
func (db *DB) QueryFavorites(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id FROM favorites WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddFavorite records a favorite. Re-adding is a no-op.
func (db *DB) AddFavorite(ctx context.Context, userID uuid.UUID, exerciseID string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO favorites (user_id, exercise_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		userID, exerciseID)
	if err != nil {
		return fmt.Errorf("inserting favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a favorite. Removing an absent one is a no-op.
func (db *DB) RemoveFavorite(ctx context.Context, userID uuid.UUID, exerciseID string) error {
	_, err := db.Pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND exercise_id = $2`, userID, exerciseID)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	return nil
}
