package mcp

import (
	"context"

	"github.com/google/uuid"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/storage"
	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/remote"
)

// DataSource abstracts the data layer for MCP tools. Both *remote.Client
// (REST API) and DBSource (direct Postgres) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context, opts store.ListOptions) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id string) (*models.Workout, error)
	ListPrograms(ctx context.Context, opts store.ListOptions) ([]models.Program, error)
	SessionHistory(ctx context.Context) ([]models.CompletedSession, error)
	ListExercises(ctx context.Context, f remote.ExerciseFilter) ([]models.Exercise, error)
	ListFavorites(ctx context.Context) ([]string, error)
}

// Compile-time check: *remote.Client satisfies DataSource.
var _ DataSource = (*remote.Client)(nil)

// DBSource adapts *storage.DB to DataSource for one user, so the MCP
// server can run against the database directly without the HTTP layer.
type DBSource struct {
	db     *storage.DB
	userID uuid.UUID
}

// NewDBSource creates a DBSource scoped to the given user.
func NewDBSource(db *storage.DB, userID uuid.UUID) *DBSource {
	return &DBSource{db: db, userID: userID}
}

var _ DataSource = (*DBSource)(nil)

func (s *DBSource) ListWorkouts(ctx context.Context, opts store.ListOptions) ([]models.Workout, error) {
	workouts, _, err := s.db.ListWorkouts(ctx, s.userID, opts)
	return workouts, err
}

func (s *DBSource) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	return s.db.GetWorkout(ctx, s.userID, id)
}

func (s *DBSource) ListPrograms(ctx context.Context, opts store.ListOptions) ([]models.Program, error) {
	programs, _, err := s.db.ListPrograms(ctx, s.userID, opts)
	return programs, err
}

func (s *DBSource) SessionHistory(ctx context.Context) ([]models.CompletedSession, error) {
	return s.db.QuerySessions(ctx, s.userID, 0)
}

func (s *DBSource) ListExercises(ctx context.Context, f remote.ExerciseFilter) ([]models.Exercise, error) {
	return s.db.QueryExercises(ctx, storage.ExerciseQuery{
		Search:      f.Search,
		MuscleGroup: f.MuscleGroup,
		Equipment:   f.Equipment,
	})
}

func (s *DBSource) ListFavorites(ctx context.Context) ([]string, error) {
	return s.db.QueryFavorites(ctx, s.userID)
}
