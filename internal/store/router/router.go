// Package router presents one CRUD surface regardless of authentication
// state: it picks the remote adapter for signed-in users and the local
// adapter otherwise, falls back to local on remote failure, and records
// failed or offline writes in the offline queue for replay.
package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/claude/ghostgym/internal/auth"
	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/queue"
	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/remote"
)

// Storage modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Location reports where a write actually landed. The original masked
// remote failures as silent local writes; the receipt makes the fallback
// observable without giving up availability.
type Location string

const (
	// LocationRemote: the write reached the backend.
	LocationRemote Location = "remote"
	// LocationLocal: the write landed only in local storage.
	LocationLocal Location = "local"
	// LocationQueued: the write landed locally and is queued for replay.
	LocationQueued Location = "queued"
)

// ServiceStatus is a point-in-time snapshot of the router's state.
type ServiceStatus struct {
	StorageMode      string `json:"storageMode"`
	IsAuthenticated  bool   `json:"isAuthenticated"`
	IsOnline         bool   `json:"isOnline"`
	OfflineQueueSize int    `json:"offlineQueueSize"`
}

// Router routes CRUD calls to the adapter matching the current mode.
type Router struct {
	local  store.Adapter
	remote store.Adapter
	queue  *queue.Queue
	log    *slog.Logger

	mu            sync.Mutex
	authenticated bool
	online        bool
	user          *auth.User
}

// New creates a Router and subscribes it to auth-state changes. q may be
// nil to disable offline queueing.
func New(local, rem store.Adapter, q *queue.Queue, states *auth.Broadcaster, log *slog.Logger) *Router {
	r := &Router{
		local:  local,
		remote: rem,
		queue:  q,
		log:    log,
		online: true,
	}
	if states != nil {
		states.Subscribe(r.handleAuthState)
	}
	return r
}

func (r *Router) handleAuthState(s auth.State) {
	r.mu.Lock()
	was := r.authenticated
	r.authenticated = s.Authenticated
	r.user = s.User
	r.mu.Unlock()

	if was != s.Authenticated {
		r.log.Info("auth state changed", "mode", r.StorageMode())
	}
}

// SetOnline records network reachability, normally driven by the sync
// engine's connectivity events. Going back online does not replay the
// queue by itself; callers run ReplayQueue.
func (r *Router) SetOnline(online bool) {
	r.mu.Lock()
	r.online = online
	r.mu.Unlock()
}

// StorageMode returns "remote" when authenticated, else "local".
func (r *Router) StorageMode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.authenticated {
		return ModeRemote
	}
	return ModeLocal
}

// IsAuthenticated reports the last auth-state notification.
func (r *Router) IsAuthenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authenticated
}

func (r *Router) remoteActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authenticated && r.online
}

func (r *Router) isOnline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

// ServiceStatus reports mode, auth, connectivity and queue depth.
func (r *Router) ServiceStatus(ctx context.Context) ServiceStatus {
	depth := 0
	if r.queue != nil {
		if n, err := r.queue.Depth(ctx); err == nil {
			depth = n
		}
	}
	return ServiceStatus{
		StorageMode:      r.StorageMode(),
		IsAuthenticated:  r.IsAuthenticated(),
		IsOnline:         r.isOnline(),
		OfflineQueueSize: depth,
	}
}

func (r *Router) enqueue(ctx context.Context, collection, op, recordID string, record any) bool {
	if r.queue == nil {
		return false
	}
	if err := r.queue.Enqueue(ctx, collection, op, recordID, record); err != nil {
		r.log.Error("offline enqueue failed", "collection", collection, "op", op, "error", err)
		return false
	}
	return true
}

// --- Workouts ---

// ListWorkouts reads from the active adapter, falling back to local data
// when the remote read fails.
func (r *Router) ListWorkouts(ctx context.Context, opts store.ListOptions) ([]models.Workout, error) {
	if r.remoteActive() {
		workouts, err := r.remote.ListWorkouts(ctx, opts)
		if err == nil {
			return workouts, nil
		}
		r.log.Warn("remote workout list failed, serving local", "error", err)
	}
	return r.local.ListWorkouts(ctx, opts)
}

// GetWorkout reads one workout with the same fallback policy.
func (r *Router) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	if r.remoteActive() {
		w, err := r.remote.GetWorkout(ctx, id)
		if err == nil {
			return w, nil
		}
		r.log.Warn("remote workout get failed, serving local", "id", id, "error", err)
	}
	return r.local.GetWorkout(ctx, id)
}

// CreateWorkout writes to the active adapter. Remote failures fall back
// to a local write; retryable failures are additionally queued for replay.
func (r *Router) CreateWorkout(ctx context.Context, w models.Workout) (*models.Workout, Location, error) {
	if !r.remoteActive() {
		created, err := r.local.CreateWorkout(ctx, w)
		if err != nil {
			return nil, "", err
		}
		// Authenticated but offline: replay the write once reconnected.
		if r.IsAuthenticated() && r.enqueue(ctx, store.CollectionWorkouts, queue.OpCreate, created.ID, created) {
			return created, LocationQueued, nil
		}
		return created, LocationLocal, nil
	}

	created, err := r.remote.CreateWorkout(ctx, w)
	if err == nil {
		return created, LocationRemote, nil
	}
	r.log.Warn("remote workout create failed, writing local", "error", err)

	created, localErr := r.local.CreateWorkout(ctx, w)
	if localErr != nil {
		return nil, "", localErr
	}
	if remote.Retryable(err) && r.enqueue(ctx, store.CollectionWorkouts, queue.OpCreate, created.ID, created) {
		return created, LocationQueued, nil
	}
	return created, LocationLocal, nil
}

// UpdateWorkout follows the same policy as CreateWorkout.
func (r *Router) UpdateWorkout(ctx context.Context, w models.Workout) (*models.Workout, Location, error) {
	if !r.remoteActive() {
		updated, err := r.local.UpdateWorkout(ctx, w)
		if err != nil {
			return nil, "", err
		}
		if r.IsAuthenticated() && r.enqueue(ctx, store.CollectionWorkouts, queue.OpUpdate, updated.ID, updated) {
			return updated, LocationQueued, nil
		}
		return updated, LocationLocal, nil
	}

	updated, err := r.remote.UpdateWorkout(ctx, w)
	if err == nil {
		return updated, LocationRemote, nil
	}
	r.log.Warn("remote workout update failed, writing local", "id", w.ID, "error", err)

	updated, localErr := r.local.UpdateWorkout(ctx, w)
	if localErr != nil {
		return nil, "", localErr
	}
	if remote.Retryable(err) && r.enqueue(ctx, store.CollectionWorkouts, queue.OpUpdate, updated.ID, updated) {
		return updated, LocationQueued, nil
	}
	return updated, LocationLocal, nil
}

// DeleteWorkout follows the same policy; queued deletes are replayed by ID.
func (r *Router) DeleteWorkout(ctx context.Context, id string) (Location, error) {
	if !r.remoteActive() {
		if err := r.local.DeleteWorkout(ctx, id); err != nil {
			return "", err
		}
		if r.IsAuthenticated() && r.enqueue(ctx, store.CollectionWorkouts, queue.OpDelete, id, nil) {
			return LocationQueued, nil
		}
		return LocationLocal, nil
	}

	err := r.remote.DeleteWorkout(ctx, id)
	if err == nil {
		return LocationRemote, nil
	}
	r.log.Warn("remote workout delete failed, deleting local", "id", id, "error", err)

	if localErr := r.local.DeleteWorkout(ctx, id); localErr != nil {
		return "", localErr
	}
	if remote.Retryable(err) && r.enqueue(ctx, store.CollectionWorkouts, queue.OpDelete, id, nil) {
		return LocationQueued, nil
	}
	return LocationLocal, nil
}

// --- Programs ---

// ListPrograms reads with the same fallback policy as workouts.
func (r *Router) ListPrograms(ctx context.Context, opts store.ListOptions) ([]models.Program, error) {
	if r.remoteActive() {
		programs, err := r.remote.ListPrograms(ctx, opts)
		if err == nil {
			return programs, nil
		}
		r.log.Warn("remote program list failed, serving local", "error", err)
	}
	return r.local.ListPrograms(ctx, opts)
}

// GetProgram reads one program.
func (r *Router) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	if r.remoteActive() {
		p, err := r.remote.GetProgram(ctx, id)
		if err == nil {
			return p, nil
		}
		r.log.Warn("remote program get failed, serving local", "id", id, "error", err)
	}
	return r.local.GetProgram(ctx, id)
}

// CreateProgram writes with the workout policy.
func (r *Router) CreateProgram(ctx context.Context, p models.Program) (*models.Program, Location, error) {
	if !r.remoteActive() {
		created, err := r.local.CreateProgram(ctx, p)
		if err != nil {
			return nil, "", err
		}
		if r.IsAuthenticated() && r.enqueue(ctx, store.CollectionPrograms, queue.OpCreate, created.ID, created) {
			return created, LocationQueued, nil
		}
		return created, LocationLocal, nil
	}

	created, err := r.remote.CreateProgram(ctx, p)
	if err == nil {
		return created, LocationRemote, nil
	}
	r.log.Warn("remote program create failed, writing local", "error", err)

	created, localErr := r.local.CreateProgram(ctx, p)
	if localErr != nil {
		return nil, "", localErr
	}
	if remote.Retryable(err) && r.enqueue(ctx, store.CollectionPrograms, queue.OpCreate, created.ID, created) {
		return created, LocationQueued, nil
	}
	return created, LocationLocal, nil
}

// UpdateProgram writes with the workout policy.
func (r *Router) UpdateProgram(ctx context.Context, p models.Program) (*models.Program, Location, error) {
	if !r.remoteActive() {
		updated, err := r.local.UpdateProgram(ctx, p)
		if err != nil {
			return nil, "", err
		}
		if r.IsAuthenticated() && r.enqueue(ctx, store.CollectionPrograms, queue.OpUpdate, updated.ID, updated) {
			return updated, LocationQueued, nil
		}
		return updated, LocationLocal, nil
	}

	updated, err := r.remote.UpdateProgram(ctx, p)
	if err == nil {
		return updated, LocationRemote, nil
	}
	r.log.Warn("remote program update failed, writing local", "id", p.ID, "error", err)

	updated, localErr := r.local.UpdateProgram(ctx, p)
	if localErr != nil {
		return nil, "", localErr
	}
	if remote.Retryable(err) && r.enqueue(ctx, store.CollectionPrograms, queue.OpUpdate, updated.ID, updated) {
		return updated, LocationQueued, nil
	}
	return updated, LocationLocal, nil
}

// DeleteProgram deletes with the workout policy.
func (r *Router) DeleteProgram(ctx context.Context, id string) (Location, error) {
	if !r.remoteActive() {
		if err := r.local.DeleteProgram(ctx, id); err != nil {
			return "", err
		}
		if r.IsAuthenticated() && r.enqueue(ctx, store.CollectionPrograms, queue.OpDelete, id, nil) {
			return LocationQueued, nil
		}
		return LocationLocal, nil
	}

	err := r.remote.DeleteProgram(ctx, id)
	if err == nil {
		return LocationRemote, nil
	}
	r.log.Warn("remote program delete failed, deleting local", "id", id, "error", err)

	if localErr := r.local.DeleteProgram(ctx, id); localErr != nil {
		return "", localErr
	}
	if remote.Retryable(err) && r.enqueue(ctx, store.CollectionPrograms, queue.OpDelete, id, nil) {
		return LocationQueued, nil
	}
	return LocationLocal, nil
}
