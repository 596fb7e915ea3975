package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/queue"
	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/remote"
)

// ReplayStats summarizes one queue replay pass.
type ReplayStats struct {
	Replayed  int
	Conflicts int
	Dropped   int
	Requeued  int
}

// ReplayQueue pushes pending offline writes to the backend in FIFO order.
// Updates are conflict-checked against the live remote record: when the
// backend copy was modified after the queued copy, the backend wins and
// the queued write is dropped (last-write-wins). Failed operations stay
// queued up to the attempt cap.
func (r *Router) ReplayQueue(ctx context.Context) (*ReplayStats, error) {
	stats := &ReplayStats{}
	if r.queue == nil {
		return stats, nil
	}
	if !r.remoteActive() {
		return stats, fmt.Errorf("replay requires an authenticated online session")
	}

	ops, err := r.queue.Pending(ctx)
	if err != nil {
		return stats, err
	}

	for _, op := range ops {
		err := r.replayOne(ctx, op)
		switch {
		case err == nil:
			stats.Replayed++
			if err := r.queue.Done(ctx, op.ID); err != nil {
				return stats, err
			}
		case errors.Is(err, errConflict):
			stats.Conflicts++
			r.log.Warn("queued write lost to newer remote record",
				"collection", op.Collection, "op", op.Op, "id", op.RecordID)
			if err := r.queue.Done(ctx, op.ID); err != nil {
				return stats, err
			}
		case remote.Retryable(err):
			kept, qErr := r.queue.Retry(ctx, op.ID)
			if qErr != nil {
				return stats, qErr
			}
			if kept {
				stats.Requeued++
			} else {
				stats.Dropped++
				r.log.Error("queued write dropped after repeated failures",
					"collection", op.Collection, "op", op.Op, "id", op.RecordID, "error", err)
			}
		default:
			stats.Dropped++
			r.log.Error("queued write rejected by backend",
				"collection", op.Collection, "op", op.Op, "id", op.RecordID, "error", err)
			if err := r.queue.Done(ctx, op.ID); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

var errConflict = errors.New("remote record is newer")

func (r *Router) replayOne(ctx context.Context, op queue.PendingOp) error {
	switch op.Collection {
	case store.CollectionWorkouts:
		return r.replayWorkout(ctx, op)
	case store.CollectionPrograms:
		return r.replayProgram(ctx, op)
	default:
		return fmt.Errorf("unknown queued collection %q", op.Collection)
	}
}

func (r *Router) replayWorkout(ctx context.Context, op queue.PendingOp) error {
	switch op.Op {
	case queue.OpCreate:
		var w models.Workout
		if err := json.Unmarshal(op.Record, &w); err != nil {
			return fmt.Errorf("decoding queued workout: %w", err)
		}
		_, err := r.remote.CreateWorkout(ctx, w)
		return err

	case queue.OpUpdate:
		var w models.Workout
		if err := json.Unmarshal(op.Record, &w); err != nil {
			return fmt.Errorf("decoding queued workout: %w", err)
		}
		current, err := r.remote.GetWorkout(ctx, w.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted remotely while offline; the delete wins.
			return errConflict
		}
		if err != nil {
			return err
		}
		if current.ModifiedDate.After(w.ModifiedDate) {
			return errConflict
		}
		_, err = r.remote.UpdateWorkout(ctx, w)
		return err

	case queue.OpDelete:
		err := r.remote.DeleteWorkout(ctx, op.RecordID)
		if errors.Is(err, store.ErrNotFound) {
			return nil // already gone
		}
		return err

	default:
		return fmt.Errorf("unknown queued op %q", op.Op)
	}
}

func (r *Router) replayProgram(ctx context.Context, op queue.PendingOp) error {
	switch op.Op {
	case queue.OpCreate:
		var p models.Program
		if err := json.Unmarshal(op.Record, &p); err != nil {
			return fmt.Errorf("decoding queued program: %w", err)
		}
		_, err := r.remote.CreateProgram(ctx, p)
		return err

	case queue.OpUpdate:
		var p models.Program
		if err := json.Unmarshal(op.Record, &p); err != nil {
			return fmt.Errorf("decoding queued program: %w", err)
		}
		current, err := r.remote.GetProgram(ctx, p.ID)
		if errors.Is(err, store.ErrNotFound) {
			return errConflict
		}
		if err != nil {
			return err
		}
		if current.ModifiedDate.After(p.ModifiedDate) {
			return errConflict
		}
		_, err = r.remote.UpdateProgram(ctx, p)
		return err

	case queue.OpDelete:
		err := r.remote.DeleteProgram(ctx, op.RecordID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown queued op %q", op.Op)
	}
}
