// Package session runs an active workout: it seeds per-exercise entries
// from the workout template, records weight changes with a debounced
// autosave, and finalizes the run into a completed-session record.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
)

// DefaultAutosaveDelay is how long after the last edit the snapshot is
// persisted. Edits inside the window collapse into one save.
const DefaultAutosaveDelay = 2 * time.Second

// Saver persists active-session snapshots. The local store satisfies it.
type Saver interface {
	SaveSession(ctx context.Context, sess models.Session) error
	LoadSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Completer receives finished sessions. The remote client satisfies it.
type Completer interface {
	CompleteSession(ctx context.Context, sess models.Session) (*models.CompletedSession, error)
}

// ErrNoActiveSession is returned by mutations before Start or Resume.
var ErrNoActiveSession = errors.New("no active session")

// Runner drives one active session at a time.
type Runner struct {
	saver     Saver
	completer Completer
	delay     time.Duration
	log       *slog.Logger

	mu      sync.Mutex
	current *models.Session
	timer   *time.Timer
}

// NewRunner creates a Runner. completer may be nil in local-only mode;
// Complete then just persists the record locally via the saver.
func NewRunner(saver Saver, completer Completer, log *slog.Logger) *Runner {
	return &Runner{
		saver:     saver,
		completer: completer,
		delay:     DefaultAutosaveDelay,
		log:       log,
	}
}

// SetAutosaveDelay overrides the debounce window. Used by tests.
func (r *Runner) SetAutosaveDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = d
}

// SlotKey names one exercise position: group id plus slot index, e.g.
// "g1/0". Session entries are keyed by it.
func SlotKey(groupID string, index int) string {
	return groupID + "/" + strconv.Itoa(index)
}

// Start begins a session for the given workout, seeding one entry per
// named slot with the group's default weight. The initial snapshot is
// persisted immediately so a crash is resumable from the start.
func (r *Runner) Start(ctx context.Context, w models.Workout) (*models.Session, error) {
	entries := map[string]models.SessionEntry{}
	for _, g := range w.ExerciseGroups {
		for _, s := range g.Slots {
			if s.Name == "" {
				continue
			}
			entries[SlotKey(g.GroupID, s.Index)] = models.SessionEntry{
				Exercise:   s.Name,
				Weight:     g.DefaultWeight,
				WeightUnit: g.DefaultWeightUnit,
			}
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("workout %s has no named exercises", w.ID)
	}

	sess := models.Session{
		ID:          store.NewID("session"),
		WorkoutID:   w.ID,
		WorkoutName: w.Name,
		StartedAt:   time.Now().UTC(),
		Status:      models.SessionActive,
		Exercises:   entries,
	}
	if err := r.saver.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting session start: %w", err)
	}

	r.mu.Lock()
	r.stopTimerLocked()
	r.current = &sess
	r.mu.Unlock()

	r.log.Info("session started", "session", sess.ID, "workout", w.ID, "exercises", len(entries))
	snap := sess
	return &snap, nil
}

// Resume restores a persisted active session.
func (r *Runner) Resume(ctx context.Context, id string) (*models.Session, error) {
	sess, err := r.saver.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionActive {
		return nil, fmt.Errorf("session %s is %s, not resumable", id, sess.Status)
	}

	r.mu.Lock()
	r.stopTimerLocked()
	r.current = sess
	r.mu.Unlock()

	r.log.Info("session resumed", "session", id, "workout", sess.WorkoutID)
	snap := *sess
	return &snap, nil
}

// LogWeight records a weight for one slot and schedules a debounced
// autosave. WeightChange keeps the delta against the previous value when
// both parse as numbers.
func (r *Runner) LogWeight(slotKey, weight, unit string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return ErrNoActiveSession
	}
	entry, ok := r.current.Exercises[slotKey]
	if !ok {
		return fmt.Errorf("unknown slot %q in session %s", slotKey, r.current.ID)
	}

	entry.WeightChange = weightDelta(entry.Weight, weight)
	entry.Weight = weight
	if unit != "" {
		entry.WeightUnit = unit
	}
	r.current.Exercises[slotKey] = entry

	r.scheduleSaveLocked()
	return nil
}

// weightDelta formats the numeric difference between two weights, or ""
// when either side is free-form text.
func weightDelta(prev, next string) string {
	p, errP := strconv.ParseFloat(strings.TrimSpace(prev), 64)
	n, errN := strconv.ParseFloat(strings.TrimSpace(next), 64)
	if errP != nil || errN != nil || p == n {
		return ""
	}
	return strconv.FormatFloat(n-p, 'f', -1, 64)
}

// scheduleSaveLocked resets the single autosave timer. Caller holds mu.
func (r *Runner) scheduleSaveLocked() {
	r.stopTimerLocked()
	r.timer = time.AfterFunc(r.delay, func() {
		if err := r.Flush(context.Background()); err != nil {
			r.log.Error("session autosave failed", "error", err)
		}
	})
}

func (r *Runner) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Flush persists the current snapshot immediately and cancels any pending
// autosave.
func (r *Runner) Flush(ctx context.Context) error {
	r.mu.Lock()
	r.stopTimerLocked()
	if r.current == nil {
		r.mu.Unlock()
		return nil
	}
	snap := *r.current
	r.mu.Unlock()

	return r.saver.SaveSession(ctx, snap)
}

// Current returns a copy of the active session, or nil.
func (r *Runner) Current() *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	snap := *r.current
	return &snap
}

// Complete finalizes the active session. With a completer the record goes
// to the backend; without one it is finalized locally. The resumable
// snapshot is removed either way.
func (r *Runner) Complete(ctx context.Context) (*models.CompletedSession, error) {
	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	r.stopTimerLocked()
	sess := *r.current
	r.current = nil
	r.mu.Unlock()

	sess.Status = models.SessionCompleted

	var completed *models.CompletedSession
	if r.completer != nil {
		var err error
		completed, err = r.completer.CompleteSession(ctx, sess)
		if err != nil {
			// Put the session back so the caller can retry or abandon.
			r.mu.Lock()
			sess.Status = models.SessionActive
			r.current = &sess
			r.mu.Unlock()
			return nil, fmt.Errorf("completing session %s: %w", sess.ID, err)
		}
	} else {
		now := time.Now().UTC()
		completed = &models.CompletedSession{
			ID:          sess.ID,
			WorkoutID:   sess.WorkoutID,
			WorkoutName: sess.WorkoutName,
			StartedAt:   sess.StartedAt,
			CompletedAt: now,
			DurationSec: int(now.Sub(sess.StartedAt) / time.Second),
			Exercises:   sess.Exercises,
		}
	}

	if err := r.saver.DeleteSession(ctx, sess.ID); err != nil {
		r.log.Warn("removing completed session snapshot failed", "session", sess.ID, "error", err)
	}
	r.log.Info("session completed", "session", sess.ID, "duration_sec", completed.DurationSec)
	return completed, nil
}

// Abandon drops the in-memory session but keeps the persisted snapshot so
// Resume can pick it back up.
func (r *Runner) Abandon(ctx context.Context) error {
	r.mu.Lock()
	r.stopTimerLocked()
	if r.current == nil {
		r.mu.Unlock()
		return nil
	}
	snap := *r.current
	r.current = nil
	r.mu.Unlock()

	if err := r.saver.SaveSession(ctx, snap); err != nil {
		return fmt.Errorf("persisting abandoned session: %w", err)
	}
	r.log.Info("session abandoned", "session", snap.ID)
	return nil
}

// RestDuration parses a group's rest prescription ("60s", "90s", "2min",
// "1:30") into a duration. Bare numbers are seconds.
func RestDuration(rest string) (time.Duration, error) {
	s := strings.TrimSpace(strings.ToLower(rest))
	if s == "" {
		return 0, fmt.Errorf("empty rest")
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		mins, err1 := strconv.Atoi(h)
		secs, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("unparseable rest %q", rest)
		}
		return time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second, nil
	}

	unit := time.Second
	switch {
	case strings.HasSuffix(s, "min"):
		unit = time.Minute
		s = strings.TrimSuffix(s, "min")
	case strings.HasSuffix(s, "m"):
		unit = time.Minute
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "sec"):
		s = strings.TrimSuffix(s, "sec")
	case strings.HasSuffix(s, "s"):
		s = strings.TrimSuffix(s, "s")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable rest %q", rest)
	}
	return time.Duration(n * float64(unit)), nil
}
