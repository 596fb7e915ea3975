package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
)

// fakeSource serves canned collections and can be flipped to fail.
type fakeSource struct {
	mu       sync.Mutex
	workouts []models.Workout
	programs []models.Program
	err      error
	calls    int
}

func (f *fakeSource) ListWorkouts(_ context.Context, _ store.ListOptions) ([]models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.workouts, nil
}

func (f *fakeSource) ListPrograms(_ context.Context, _ store.ListOptions) ([]models.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.programs, nil
}

func (f *fakeSource) setWorkouts(workouts []models.Workout) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workouts = workouts
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestForceSyncNotifiesOnChange verifies that a listener fires on the
// first poll and again only when a record's modified_date moves.
func TestForceSyncNotifiesOnChange(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{
		workouts: []models.Workout{{ID: "workout-1", Name: "Push Day", ModifiedDate: base}},
	}

	var notifications int
	eng := New(src, func(Snapshot) { notifications++ }, testLogger())

	if err := eng.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	if notifications != 1 {
		t.Fatalf("notifications = %d, want 1 after first poll", notifications)
	}

	// Identical collections: no notification.
	if err := eng.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	if notifications != 1 {
		t.Fatalf("notifications = %d, want 1 after unchanged poll", notifications)
	}

	// Bumped modified_date: notification.
	src.setWorkouts([]models.Workout{{ID: "workout-1", Name: "Push Day", ModifiedDate: base.Add(time.Minute)}})
	if err := eng.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	if notifications != 2 {
		t.Fatalf("notifications = %d, want 2 after modified record", notifications)
	}
}

// TestForceSyncStatusTransitions verifies synced after success and error
// after failure.
func TestForceSyncStatusTransitions(t *testing.T) {
	src := &fakeSource{}
	eng := New(src, nil, testLogger())

	if got := eng.Status(); got != StatusDisconnected {
		t.Fatalf("initial status = %q, want %q", got, StatusDisconnected)
	}

	if err := eng.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	if got := eng.Status(); got != StatusSynced {
		t.Fatalf("status after sync = %q, want %q", got, StatusSynced)
	}

	src.setErr(errors.New("backend down"))
	if err := eng.ForceSync(context.Background()); err == nil {
		t.Fatal("ForceSync() with failing source returned nil error")
	}
	if got := eng.Status(); got != StatusError {
		t.Fatalf("status after failure = %q, want %q", got, StatusError)
	}

	// Recovery is reachable from error.
	src.setErr(nil)
	if err := eng.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() after recovery error = %v", err)
	}
	if got := eng.Status(); got != StatusSynced {
		t.Fatalf("status after recovery = %q, want %q", got, StatusSynced)
	}
}

// TestSetOnlineParksAndRestarts verifies the offline state machine edges.
func TestSetOnlineParksAndRestarts(t *testing.T) {
	src := &fakeSource{}
	eng := New(src, nil, testLogger())
	ctx := context.Background()

	if err := eng.ForceSync(ctx); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}

	eng.SetOnline(ctx, false)
	if got := eng.Status(); got != StatusOffline {
		t.Fatalf("status = %q, want %q", got, StatusOffline)
	}
	if !eng.skipTick() {
		t.Fatal("skipTick() = false while offline, poll loop would keep hitting the network")
	}

	eng.SetOnline(ctx, true)
	if got := eng.Status(); got != StatusSyncing {
		t.Fatalf("status = %q, want %q after reconnect", got, StatusSyncing)
	}
}

// TestStatusListenerMayReadBack verifies a status callback can call
// Status/SyncStatus on the engine without deadlocking, and sees the
// state the transition landed in.
func TestStatusListenerMayReadBack(t *testing.T) {
	src := &fakeSource{}
	var eng *Engine
	var seen []string
	eng = New(src, nil, testLogger(), WithStatusFunc(func(status string) {
		if got := eng.Status(); got != status {
			t.Errorf("Status() inside callback = %q, callback got %q", got, status)
		}
		eng.SyncStatus()
		seen = append(seen, status)
	}))

	done := make(chan error, 1)
	go func() { done <- eng.ForceSync(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ForceSync() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ForceSync() deadlocked with a read-back status listener")
	}

	if len(seen) == 0 || seen[len(seen)-1] != StatusSynced {
		t.Fatalf("statuses = %v, want trailing %q", seen, StatusSynced)
	}
}

// TestRetryBackoffSequence verifies the per-error backoff delays and the
// attempt cap.
func TestRetryBackoffSequence(t *testing.T) {
	eng := New(&fakeSource{}, nil, testLogger())

	st := eng.retryFor("dial tcp: connection refused")
	wants := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range wants {
		if got := st.bo.NextBackOff(); got != want {
			t.Fatalf("backoff attempt %d = %v, want %v", i+1, got, want)
		}
	}

	// Same message reuses the same counter; a new message gets a fresh one.
	if again := eng.retryFor("dial tcp: connection refused"); again != st {
		t.Fatal("retryFor returned a new state for a repeated error message")
	}
	fresh := eng.retryFor("500 internal server error")
	if got := fresh.bo.NextBackOff(); got != time.Second {
		t.Fatalf("fresh error backoff = %v, want 1s", got)
	}
}

// TestPollWithRetryGivesUpAtCap verifies a persistent failure lands in
// the error state after the configured number of retries.
func TestPollWithRetryGivesUpAtCap(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	eng := New(src, nil, testLogger())
	// Shrink delays so the test does not sleep for seconds.
	st := eng.retryFor("boom")
	st.bo.InitialInterval = time.Millisecond
	st.bo.Reset()

	eng.pollWithRetry(context.Background())

	if got := eng.Status(); got != StatusError {
		t.Fatalf("status = %q, want %q", got, StatusError)
	}
	status := eng.SyncStatus()
	if status.RetryAttempts["boom"] != DefaultMaxRetries {
		t.Fatalf("retry attempts = %d, want %d", status.RetryAttempts["boom"], DefaultMaxRetries)
	}
}

// TestPauseResume verifies paused engines skip ticks and resume cleanly.
func TestPauseResume(t *testing.T) {
	eng := New(&fakeSource{}, nil, testLogger())
	ctx := context.Background()

	if err := eng.ForceSync(ctx); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	eng.Pause(ctx)
	if !eng.skipTick() {
		t.Fatal("skipTick() = false while paused")
	}
	if got := eng.Status(); got != StatusDisconnected {
		t.Fatalf("status = %q, want %q while paused", got, StatusDisconnected)
	}
	eng.Resume(ctx)
	if eng.skipTick() {
		t.Fatal("skipTick() = true after resume")
	}
}

func TestNewerWins(t *testing.T) {
	now := time.Now()
	if got := NewerWins(now.Add(time.Second), now); got != "local" {
		t.Fatalf("NewerWins(local newer) = %q, want local", got)
	}
	if got := NewerWins(now, now.Add(time.Second)); got != "remote" {
		t.Fatalf("NewerWins(remote newer) = %q, want remote", got)
	}
	if got := NewerWins(now, now); got != "remote" {
		t.Fatalf("NewerWins(tie) = %q, want remote", got)
	}
}
