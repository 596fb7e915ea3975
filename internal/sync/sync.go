// Package sync keeps UI state fresh by polling the backend and notifying
// a listener when the workout or program collections actually changed.
// There is no push channel in the backend contract, so polling stays; the
// change check is structural (id + modified_date pairs), not a serialized
// comparison.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/looplab/fsm"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
	gsync "sync"
)

// Sync statuses, reported via Status and the status callback.
const (
	StatusDisconnected = "disconnected"
	StatusSyncing      = "syncing"
	StatusSynced       = "synced"
	StatusError        = "error"
	StatusOffline      = "offline"
)

const (
	eventStart   = "start"
	eventSynced  = "synced"
	eventPoll    = "poll"
	eventError   = "error"
	eventOffline = "offline"
	eventStop    = "stop"
)

// DefaultInterval matches the original 5-second poll loop.
const DefaultInterval = 5 * time.Second

// DefaultMaxRetries bounds retry attempts per distinct error message.
const DefaultMaxRetries = 3

// Source is the read surface the engine polls; the remote adapter
// satisfies it.
type Source interface {
	ListWorkouts(ctx context.Context, opts store.ListOptions) ([]models.Workout, error)
	ListPrograms(ctx context.Context, opts store.ListOptions) ([]models.Program, error)
}

// Snapshot is one poll's view of both collections.
type Snapshot struct {
	Workouts []models.Workout
	Programs []models.Program
}

// SyncStatus is the detailed state exposed to status indicators.
type SyncStatus struct {
	Status        string         `json:"status"`
	LastSyncTime  time.Time      `json:"lastSyncTime"`
	RetryAttempts map[string]int `json:"retryAttempts"`
}

type retryState struct {
	attempts int
	bo       *backoff.ExponentialBackOff
}

// Engine drives the poll loop and the status state machine.
type Engine struct {
	source     Source
	interval   time.Duration
	maxRetries int
	onChange   func(Snapshot)
	onStatus   func(status string)
	log        *slog.Logger

	mu       gsync.Mutex
	machine  *fsm.FSM
	lastSync time.Time
	retries  map[string]*retryState
	lastW    []fingerprint
	lastP    []fingerprint
	paused   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithStatusFunc registers a status-change callback.
func WithStatusFunc(fn func(status string)) Option {
	return func(e *Engine) { e.onStatus = fn }
}

// New creates an Engine. onChange receives a snapshot whenever either
// collection differs from the previously delivered one.
func New(source Source, onChange func(Snapshot), log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		source:     source,
		interval:   DefaultInterval,
		maxRetries: DefaultMaxRetries,
		onChange:   onChange,
		log:        log,
		retries:    map[string]*retryState{},
	}
	e.machine = fsm.NewFSM(
		StatusDisconnected,
		fsm.Events{
			{Name: eventStart, Src: []string{StatusDisconnected, StatusOffline, StatusError}, Dst: StatusSyncing},
			{Name: eventSynced, Src: []string{StatusSyncing}, Dst: StatusSynced},
			{Name: eventPoll, Src: []string{StatusSynced}, Dst: StatusSyncing},
			{Name: eventError, Src: []string{StatusSyncing}, Dst: StatusError},
			{Name: eventOffline, Src: []string{StatusDisconnected, StatusSyncing, StatusSynced, StatusError}, Dst: StatusOffline},
			{Name: eventStop, Src: []string{StatusSyncing, StatusSynced, StatusError, StatusOffline}, Dst: StatusDisconnected},
		},
		fsm.Callbacks{},
	)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// event fires a transition, ignoring events that do not apply to the
// current state. The status callback runs after the lock is released so
// listeners may call Status/SyncStatus without deadlocking.
func (e *Engine) event(ctx context.Context, name string) {
	e.mu.Lock()
	src := e.machine.Current()
	err := e.machine.Event(ctx, name)
	dst := e.machine.Current()
	e.mu.Unlock()

	if err != nil {
		e.log.Debug("sync transition skipped", "event", name, "error", err)
		return
	}
	e.log.Info("sync status", "from", src, "to", dst)
	if e.onStatus != nil {
		e.onStatus(dst)
	}
}

// Status returns the current machine state.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Current()
}

// SyncStatus returns status plus retry bookkeeping.
func (e *Engine) SyncStatus() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	attempts := make(map[string]int, len(e.retries))
	for msg, st := range e.retries {
		attempts[msg] = st.attempts
	}
	return SyncStatus{
		Status:        e.machine.Current(),
		LastSyncTime:  e.lastSync,
		RetryAttempts: attempts,
	}
}

// Run polls until ctx is cancelled. An initial poll fires immediately.
func (e *Engine) Run(ctx context.Context) {
	e.event(ctx, eventStart)
	e.pollWithRetry(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.event(context.Background(), eventStop)
			return
		case <-ticker.C:
			if e.skipTick() {
				continue
			}
			e.pollWithRetry(ctx)
		}
	}
}

func (e *Engine) skipTick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return true
	}
	cur := e.machine.Current()
	return cur == StatusOffline || cur == StatusDisconnected
}

// SetOnline feeds browser-style connectivity events into the machine.
// Going offline parks the loop; coming back restarts it and clears retry
// bookkeeping, as the original did on its online event.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	if !online {
		e.event(ctx, eventOffline)
		return
	}
	e.mu.Lock()
	e.retries = map[string]*retryState{}
	e.mu.Unlock()
	e.event(ctx, eventStart)
}

// ForceSync runs one poll immediately, outside the ticker.
func (e *Engine) ForceSync(ctx context.Context) error {
	e.event(ctx, eventPoll)
	e.event(ctx, eventStart)
	if err := e.pollOnce(ctx); err != nil {
		e.event(ctx, eventError)
		return err
	}
	e.event(ctx, eventSynced)
	return nil
}

// Pause stops polling without tearing the engine down.
func (e *Engine) Pause(ctx context.Context) {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	e.event(ctx, eventStop)
}

// Resume restarts a paused engine.
func (e *Engine) Resume(ctx context.Context) {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	e.event(ctx, eventStart)
}

// pollWithRetry polls, retrying failures per distinct error message with
// exponential backoff (1s, 2s, 4s) up to the retry cap, then parks in the
// error state.
func (e *Engine) pollWithRetry(ctx context.Context) {
	e.event(ctx, eventPoll)
	e.event(ctx, eventStart)

	for {
		err := e.pollOnce(ctx)
		if err == nil {
			e.mu.Lock()
			e.retries = map[string]*retryState{}
			e.lastSync = time.Now()
			e.mu.Unlock()
			e.event(ctx, eventSynced)
			return
		}

		st := e.retryFor(err.Error())
		if st.attempts >= e.maxRetries {
			e.log.Error("sync retries exhausted", "error", err)
			e.event(ctx, eventError)
			return
		}
		st.attempts++
		delay := st.bo.NextBackOff()
		e.log.Warn("sync poll failed, retrying",
			"attempt", st.attempts, "max", e.maxRetries, "delay", delay.String(), "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (e *Engine) retryFor(msg string) *retryState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.retries[msg]
	if !ok {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = time.Second
		bo.Multiplier = 2
		bo.RandomizationFactor = 0
		bo.MaxInterval = 8 * time.Second
		st = &retryState{bo: bo}
		e.retries[msg] = st
	}
	return st
}

// pollOnce fetches both collections and notifies the listener when the
// fingerprints moved.
func (e *Engine) pollOnce(ctx context.Context) error {
	workouts, err := e.source.ListWorkouts(ctx, store.ListOptions{})
	if err != nil {
		return err
	}
	programs, err := e.source.ListPrograms(ctx, store.ListOptions{})
	if err != nil {
		return err
	}

	wFP := workoutFingerprints(workouts)
	pFP := programFingerprints(programs)

	e.mu.Lock()
	changed := !equalFingerprints(e.lastW, wFP) || !equalFingerprints(e.lastP, pFP)
	e.lastW = wFP
	e.lastP = pFP
	e.mu.Unlock()

	if changed && e.onChange != nil {
		e.onChange(Snapshot{Workouts: workouts, Programs: programs})
	}
	return nil
}
