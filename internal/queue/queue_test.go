package queue

import (
	"context"
	"testing"
)

func openTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

// TestEnqueueFIFO verifies pending operations come back in the order
// they were queued.
func TestEnqueueFIFO(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	type rec struct {
		Name string `json:"name"`
	}
	q.Enqueue(ctx, "gym_workouts", OpCreate, "workout-1", rec{"first"})
	q.Enqueue(ctx, "gym_workouts", OpUpdate, "workout-1", rec{"second"})
	q.Enqueue(ctx, "gym_programs", OpDelete, "program-1", nil)

	ops, err := q.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("pending = %d ops, want 3", len(ops))
	}
	if ops[0].Op != OpCreate || ops[1].Op != OpUpdate || ops[2].Op != OpDelete {
		t.Fatalf("order = %s, %s, %s", ops[0].Op, ops[1].Op, ops[2].Op)
	}
	if ops[2].Collection != "gym_programs" || ops[2].RecordID != "program-1" {
		t.Fatalf("delete op = %+v", ops[2])
	}
	// nil records are stored as JSON null, not empty strings.
	if string(ops[2].Record) != "null" {
		t.Fatalf("delete record = %q, want null", ops[2].Record)
	}
	if string(ops[0].Record) != `{"name":"first"}` {
		t.Fatalf("create record = %s", ops[0].Record)
	}
}

// TestDoneRemovesOp verifies completed operations leave the queue.
func TestDoneRemovesOp(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, "gym_workouts", OpCreate, "workout-1", nil)
	q.Enqueue(ctx, "gym_workouts", OpCreate, "workout-2", nil)

	ops, _ := q.Pending(ctx)
	if err := q.Done(ctx, ops[0].ID); err != nil {
		t.Fatalf("Done() error = %v", err)
	}

	remaining, _ := q.Pending(ctx)
	if len(remaining) != 1 || remaining[0].RecordID != "workout-2" {
		t.Fatalf("remaining = %+v", remaining)
	}
	if n, _ := q.Depth(ctx); n != 1 {
		t.Fatalf("Depth() = %d, want 1", n)
	}
}

// TestRetryCapDropsOp verifies the attempt counter: an op survives
// retries up to the cap and is removed when it hits it.
func TestRetryCapDropsOp(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, "gym_workouts", OpUpdate, "workout-1", nil)
	ops, _ := q.Pending(ctx)
	id := ops[0].ID

	for i := 1; i < MaxAttempts; i++ {
		kept, err := q.Retry(ctx, id)
		if err != nil {
			t.Fatalf("Retry() %d error = %v", i, err)
		}
		if !kept {
			t.Fatalf("op dropped after %d attempts, cap is %d", i, MaxAttempts)
		}
	}

	kept, err := q.Retry(ctx, id)
	if err != nil {
		t.Fatalf("final Retry() error = %v", err)
	}
	if kept {
		t.Fatal("op kept past the attempt cap")
	}
	if n, _ := q.Depth(ctx); n != 0 {
		t.Fatalf("Depth() = %d after drop, want 0", n)
	}
}

// TestQueueSurvivesReopen verifies durability across process restarts.
func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	q, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	q.Enqueue(ctx, "gym_workouts", OpCreate, "workout-1", map[string]string{"name": "durable"})
	q.Close()

	q2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer q2.Close()

	ops, err := q2.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(ops) != 1 || ops[0].RecordID != "workout-1" {
		t.Fatalf("ops after reopen = %+v", ops)
	}
}
