package remote

import (
	"context"
	"net/http"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
)

// CompleteSession hands a finished session to the backend and returns the
// stored history record.
func (c *Client) CompleteSession(ctx context.Context, sess models.Session) (*models.CompletedSession, error) {
	var completed models.CompletedSession
	if err := c.do(ctx, http.MethodPost, "/api/v3/workout-sessions/complete", nil, sess, &completed); err != nil {
		return nil, err
	}
	c.invalidate(collectionSessions)
	return &completed, nil
}

type sessionHistory struct {
	Sessions []models.CompletedSession `json:"sessions"`
}

// SessionHistory lists completed sessions, newest first.
func (c *Client) SessionHistory(ctx context.Context) ([]models.CompletedSession, error) {
	resp, err := get[sessionHistory](ctx, c, collectionSessions, "/api/v3/workout-sessions/history", nil)
	if err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// MigrationResult reports how many local records the backend absorbed.
type MigrationResult struct {
	MigratedPrograms int `json:"migrated_programs"`
	MigratedWorkouts int `json:"migrated_workouts"`
}

type migrationRequest struct {
	Programs []models.Program `json:"programs"`
	Workouts []models.Workout `json:"workouts"`
}

// MigrateData pushes local-mode records to the backend after sign-in.
func (c *Client) MigrateData(ctx context.Context, programs []models.Program, workouts []models.Workout) (*MigrationResult, error) {
	var result MigrationResult
	body := migrationRequest{Programs: programs, Workouts: workouts}
	if err := c.do(ctx, http.MethodPost, "/api/v3/auth/migrate-data", nil, body, &result); err != nil {
		return nil, err
	}
	c.invalidate(store.CollectionWorkouts)
	c.invalidate(store.CollectionPrograms)
	return &result, nil
}
