// Package store defines the uniform CRUD surface shared by the local and
// remote persistence adapters, plus the error taxonomy callers match on.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/claude/ghostgym/internal/models"
)

var (
	// ErrNotFound is returned by update/delete when no record has the ID.
	ErrNotFound = errors.New("record not found")

	// ErrAuthRequired is returned by the remote adapter before any network
	// call when no user token is available.
	ErrAuthRequired = errors.New("authentication required")
)

// Collection names. The local adapter uses these as its storage keys and
// the dedup cache uses them for invalidation scoping.
const (
	CollectionWorkouts = "gym_workouts"
	CollectionPrograms = "gym_programs"
)

// ListOptions controls list filtering and pagination. Page is 1-based.
// Search is a case-insensitive substring match across name, description
// and tags; Tags filters by exact tag membership.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Tags     []string
}

// Window returns the [lo, hi) slice bounds for n items, applying the
// given default page size when PageSize is unset.
func (o ListOptions) Window(n, defaultPageSize int) (int, int) {
	page := o.Page
	if page < 1 {
		page = 1
	}
	size := o.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	lo := (page - 1) * size
	if lo > n {
		lo = n
	}
	hi := lo + size
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Adapter is the persistence surface the router picks between. Both the
// local sqlite store and the remote API client satisfy it.
type Adapter interface {
	ListWorkouts(ctx context.Context, opts ListOptions) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id string) (*models.Workout, error)
	CreateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error)
	UpdateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error)
	DeleteWorkout(ctx context.Context, id string) error

	ListPrograms(ctx context.Context, opts ListOptions) ([]models.Program, error)
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	CreateProgram(ctx context.Context, p models.Program) (*models.Program, error)
	UpdateProgram(ctx context.Context, p models.Program) (*models.Program, error)
	DeleteProgram(ctx context.Context, id string) error
}

// NewID generates a client-side record ID: "<kind>-<unix millis>-<suffix>".
// The suffix is 9 base36 characters, matching the original scheme.
func NewID(kind string) string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	for len(suffix) < 9 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("%s-%d-%s", kind, time.Now().UnixMilli(), suffix[:9])
}
