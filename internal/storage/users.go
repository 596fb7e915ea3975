package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRow is one account. APIToken is the opaque bearer token presented
// by clients; there is no token exchange flow.
type UserRow struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	APIToken    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetUserByToken resolves a bearer token to its account.
func (db *DB) GetUserByToken(ctx context.Context, token string) (*UserRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, email, display_name, api_token, created_at FROM users WHERE api_token = $1`,
		token)

	var u UserRow
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.APIToken, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by token: %w", err)
	}
	return &u, nil
}

// CreateUser inserts an account with a fresh ID and token. Used by the
// bootstrap path and tests.
func (db *DB) CreateUser(ctx context.Context, email, displayName string) (*UserRow, error) {
	u := UserRow{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		APIToken:    uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, api_token, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.DisplayName, u.APIToken, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &u, nil
}
