package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/ghostgym/internal/models"
)

func marshalDoc(v any) ([]byte, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding doc: %w", err)
	}
	return doc, nil
}

// MigrationCounts reports how many records a data migration absorbed.
type MigrationCounts struct {
	Programs int `json:"migrated_programs"`
	Workouts int `json:"migrated_workouts"`
}

// MigrateUserData absorbs a client's local-mode records in one
// transaction, preserving client IDs and dates. Records whose ID already
// exists are skipped, so re-running a migration is safe.
func (db *DB) MigrateUserData(ctx context.Context, userID uuid.UUID, programs []models.Program, workouts []models.Workout) (*MigrationCounts, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting migration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	counts := &MigrationCounts{}

	for _, w := range workouts {
		doc, err := marshalDoc(w)
		if err != nil {
			return nil, err
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, name, description, tags, doc, created_date, modified_date, is_template)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (id) DO NOTHING`,
			w.ID, userID, w.Name, w.Description, w.Tags, doc, w.CreatedDate, w.ModifiedDate, w.IsTemplate)
		if err != nil {
			return nil, fmt.Errorf("migrating workout %s: %w", w.ID, err)
		}
		counts.Workouts += int(tag.RowsAffected())
	}

	for _, p := range programs {
		doc, err := marshalDoc(p)
		if err != nil {
			return nil, err
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO programs (id, user_id, name, description, tags, doc, created_date, modified_date)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (id) DO NOTHING`,
			p.ID, userID, p.Name, p.Description, p.Tags, doc, p.CreatedDate, p.ModifiedDate)
		if err != nil {
			return nil, fmt.Errorf("migrating program %s: %w", p.ID, err)
		}
		counts.Programs += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing migration: %w", err)
	}
	return counts, nil
}
