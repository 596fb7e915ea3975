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

const defaultProgramPageSize = 20

// ListPrograms retrieves one page of a user's programs, newest-modified
// first. Search and tag filtering behave as for workouts.
func (db *DB) ListPrograms(ctx context.Context, userID uuid.UUID, opts store.ListOptions) ([]models.Program, int, error) {
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
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM programs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting programs: %w", err)
	}

	limit, offset := pageWindow(opts, defaultProgramPageSize)
	args = append(args, limit, offset)
	rows, err := db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT doc FROM programs WHERE %s ORDER BY modified_date DESC LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.Program
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, fmt.Errorf("scanning program: %w", err)
		}
		var p models.Program
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, 0, fmt.Errorf("decoding program doc: %w", err)
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

// GetProgram retrieves a single program owned by the user.
func (db *DB) GetProgram(ctx context.Context, userID uuid.UUID, id string) (*models.Program, error) {
	var doc []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT doc FROM programs WHERE id = $1 AND user_id = $2`, id, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying program: %w", err)
	}
	var p models.Program
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decoding program doc: %w", err)
	}
	return &p, nil
}

// CreateProgram inserts a program, preserving client-supplied IDs.
func (db *DB) CreateProgram(ctx context.Context, userID uuid.UUID, p models.Program) (*models.Program, error) {
	if p.ID == "" {
		p.ID = "program-" + uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedDate = now
	p.ModifiedDate = now

	if err := db.insertProgram(ctx, userID, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) insertProgram(ctx context.Context, userID uuid.UUID, p models.Program) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding program doc: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO programs (id, user_id, name, description, tags, doc, created_date, modified_date)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, userID, p.Name, p.Description, p.Tags, doc, p.CreatedDate, p.ModifiedDate)
	if err != nil {
		return fmt.Errorf("inserting program: %w", err)
	}
	return nil
}

// UpdateProgram replaces a program's document.
func (db *DB) UpdateProgram(ctx context.Context, userID uuid.UUID, p models.Program) (*models.Program, error) {
	current, err := db.GetProgram(ctx, userID, p.ID)
	if err != nil {
		return nil, err
	}
	p.CreatedDate = current.CreatedDate
	p.ModifiedDate = time.Now().UTC()

	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding program doc: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE programs SET name = $1, description = $2, tags = $3, doc = $4, modified_date = $5
		 WHERE id = $6 AND user_id = $7`,
		p.Name, p.Description, p.Tags, doc, p.ModifiedDate, p.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("updating program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &p, nil
}

// DeleteProgram removes a program.
func (db *DB) DeleteProgram(ctx context.Context, userID uuid.UUID, id string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM programs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
