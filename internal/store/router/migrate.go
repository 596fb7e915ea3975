package router

import (
	"context"
	"fmt"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/remote"
)

// Migrator is the backend migration endpoint. *remote.Client satisfies it.
type Migrator interface {
	MigrateData(ctx context.Context, programs []models.Program, workouts []models.Workout) (*remote.MigrationResult, error)
}

// migrationPageSize caps one local read during migration. Local datasets
// are small; a single large page is how the original shipped everything.
const migrationPageSize = 1000

// MigrateLocalData pushes every local-mode record to the backend. Flipping
// to remote mode never merges local data implicitly; this is the explicit
// path, run after the user confirms the upgrade prompt.
func (r *Router) MigrateLocalData(ctx context.Context) (*remote.MigrationResult, error) {
	if !r.remoteActive() {
		return nil, fmt.Errorf("migration requires an authenticated online session")
	}
	m, ok := r.remote.(Migrator)
	if !ok {
		return nil, fmt.Errorf("remote adapter does not support migration")
	}

	workouts, err := r.local.ListWorkouts(ctx, store.ListOptions{PageSize: migrationPageSize})
	if err != nil {
		return nil, fmt.Errorf("reading local workouts: %w", err)
	}
	programs, err := r.local.ListPrograms(ctx, store.ListOptions{PageSize: migrationPageSize})
	if err != nil {
		return nil, fmt.Errorf("reading local programs: %w", err)
	}
	if len(workouts) == 0 && len(programs) == 0 {
		return &remote.MigrationResult{}, nil
	}

	result, err := m.MigrateData(ctx, programs, workouts)
	if err != nil {
		return nil, err
	}
	r.log.Info("local data migrated",
		"workouts", result.MigratedWorkouts, "programs", result.MigratedPrograms)
	return result, nil
}
