package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleWorkout(name string, tags ...string) models.Workout {
	return models.Workout{
		Name: name,
		Tags: tags,
		ExerciseGroups: []models.ExerciseGroup{
			{GroupID: "g1", Slots: []models.ExerciseSlot{{Index: 0, Name: "Squat"}}, Sets: "3", Reps: "5"},
		},
	}
}

// TestWorkoutRoundTrip verifies a created workout reads back identical
// through Get, with server-assigned ID and timestamps.
func TestWorkoutRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWorkout(ctx, sampleWorkout("Leg Day", "lower"))
	if err != nil {
		t.Fatalf("CreateWorkout() error = %v", err)
	}
	if created.ID == "" || created.CreatedDate.IsZero() || created.ModifiedDate.IsZero() {
		t.Fatalf("created workout missing ID or dates: %+v", created)
	}
	if !created.IsTemplate {
		t.Fatal("created workout is not marked as template")
	}

	got, err := s.GetWorkout(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetWorkout() error = %v", err)
	}
	if got.Name != "Leg Day" || len(got.ExerciseGroups) != 1 || got.ExerciseGroups[0].Slots[0].Name != "Squat" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

// TestUpdatePreservesIdentity verifies the ID and created_date survive
// an update while modified_date advances.
func TestUpdatePreservesIdentity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWorkout(ctx, sampleWorkout("Push Day"))
	if err != nil {
		t.Fatalf("CreateWorkout() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	edited := *created
	edited.Name = "Push Day v2"
	edited.CreatedDate = time.Time{} // clients cannot rewrite created_date
	updated, err := s.UpdateWorkout(ctx, edited)
	if err != nil {
		t.Fatalf("UpdateWorkout() error = %v", err)
	}

	if updated.ID != created.ID {
		t.Fatalf("ID changed across update: %s -> %s", created.ID, updated.ID)
	}
	if !updated.CreatedDate.Equal(created.CreatedDate) {
		t.Fatalf("created_date changed: %v -> %v", created.CreatedDate, updated.CreatedDate)
	}
	if !updated.ModifiedDate.After(created.ModifiedDate) {
		t.Fatalf("modified_date did not advance: %v", updated.ModifiedDate)
	}
}

// TestUpdateAndDeleteMissing verifies missing-record behavior: both
// error without mutating anything.
func TestUpdateAndDeleteMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ghost := sampleWorkout("Ghost")
	ghost.ID = "workout-0-zzzzzzzzz"
	if _, err := s.UpdateWorkout(ctx, ghost); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("UpdateWorkout(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteWorkout(ctx, ghost.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("DeleteWorkout(missing) error = %v, want ErrNotFound", err)
	}

	workouts, err := s.ListWorkouts(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("ListWorkouts() error = %v", err)
	}
	if len(workouts) != 0 {
		t.Fatalf("collection mutated by failed operations: %d records", len(workouts))
	}
}

// TestDeleteRemovesRecord verifies deletion and that a second delete of
// the same ID errors.
func TestDeleteRemovesRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, _ := s.CreateWorkout(ctx, sampleWorkout("Temp"))
	if err := s.DeleteWorkout(ctx, created.ID); err != nil {
		t.Fatalf("DeleteWorkout() error = %v", err)
	}
	if _, err := s.GetWorkout(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetWorkout(deleted) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteWorkout(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second DeleteWorkout() error = %v, want ErrNotFound", err)
	}
}

// TestListFiltersAndPagination verifies search, tag filter and the page
// window, and that lists come back newest first.
func TestListFiltersAndPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.CreateWorkout(ctx, sampleWorkout("Upper A", "upper"))
	s.CreateWorkout(ctx, sampleWorkout("Upper B", "upper"))
	s.CreateWorkout(ctx, sampleWorkout("Lower A", "lower"))

	all, err := s.ListWorkouts(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("ListWorkouts() error = %v", err)
	}
	if len(all) != 3 || all[0].Name != "Lower A" {
		t.Fatalf("list = %d records, first %q; want 3 newest-first", len(all), all[0].Name)
	}

	upper, err := s.ListWorkouts(ctx, store.ListOptions{Tags: []string{"upper"}})
	if err != nil {
		t.Fatalf("ListWorkouts(tags) error = %v", err)
	}
	if len(upper) != 2 {
		t.Fatalf("tag filter returned %d, want 2", len(upper))
	}

	search, err := s.ListWorkouts(ctx, store.ListOptions{Search: "lower"})
	if err != nil {
		t.Fatalf("ListWorkouts(search) error = %v", err)
	}
	if len(search) != 1 || search[0].Name != "Lower A" {
		t.Fatalf("search = %+v, want only Lower A", search)
	}

	page2, err := s.ListWorkouts(ctx, store.ListOptions{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("ListWorkouts(page) error = %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("page 2 returned %d records, want 1", len(page2))
	}

	beyond, err := s.ListWorkouts(ctx, store.ListOptions{Page: 5, PageSize: 2})
	if err != nil {
		t.Fatalf("ListWorkouts(beyond) error = %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("out-of-range page returned %d records, want 0", len(beyond))
	}
}

// TestConcurrentCreates verifies writers are serialized: every
// concurrent create must succeed and survive in the collection, with no
// lost updates from the whole-collection rewrite.
func TestConcurrentCreates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CreateWorkout(ctx, sampleWorkout(fmt.Sprintf("Workout %d", i))); err != nil {
				t.Errorf("CreateWorkout(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	workouts, err := s.ListWorkouts(ctx, store.ListOptions{PageSize: n})
	if err != nil {
		t.Fatalf("ListWorkouts() error = %v", err)
	}
	if len(workouts) != n {
		t.Fatalf("stored %d of %d concurrently created workouts", len(workouts), n)
	}
	seen := map[string]bool{}
	for _, w := range workouts {
		if seen[w.ID] {
			t.Fatalf("duplicate ID %s", w.ID)
		}
		seen[w.ID] = true
	}
}

// TestProgramRoundTrip covers the program collection including the
// non-nil workouts slice guarantee.
func TestProgramRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateProgram(ctx, models.Program{Name: "5x5", Tags: []string{"strength"}})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	if created.Workouts == nil {
		t.Fatal("created program has nil workouts slice")
	}

	created.Workouts = append(created.Workouts, models.ProgramWorkout{WorkoutID: "workout-1", OrderIndex: 0})
	updated, err := s.UpdateProgram(ctx, *created)
	if err != nil {
		t.Fatalf("UpdateProgram() error = %v", err)
	}

	got, err := s.GetProgram(ctx, updated.ID)
	if err != nil {
		t.Fatalf("GetProgram() error = %v", err)
	}
	if len(got.Workouts) != 1 || got.Workouts[0].WorkoutID != "workout-1" {
		t.Fatalf("program round-trip mismatch: %+v", got)
	}
}

// TestSessionPersistence verifies save, load, delete of session
// snapshots across store reopen.
func TestSessionPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx := context.Background()

	sess := models.Session{
		ID:        "session-1",
		WorkoutID: "workout-1",
		StartedAt: time.Now().UTC(),
		Status:    models.SessionActive,
		Exercises: map[string]models.SessionEntry{"g1/0": {Exercise: "Squat", Weight: "100"}},
	}
	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	s.Close()

	// Reopen: the snapshot must survive.
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	loaded, err := s2.LoadSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if loaded.Exercises["g1/0"].Weight != "100" {
		t.Fatalf("loaded session = %+v", loaded)
	}

	if err := s2.DeleteSession(ctx, "session-1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s2.LoadSession(ctx, "session-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("LoadSession(deleted) error = %v, want ErrNotFound", err)
	}
}
