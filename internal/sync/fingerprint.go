package sync

import (
	"time"

	"github.com/claude/ghostgym/internal/models"
)

// fingerprint identifies one record revision. Two polls are considered
// equal when every record matches on id and modified_date; field-level
// edits always bump modified_date, so this catches them without
// serializing whole collections.
type fingerprint struct {
	id  string
	mod time.Time
}

func workoutFingerprints(workouts []models.Workout) []fingerprint {
	fps := make([]fingerprint, len(workouts))
	for i, w := range workouts {
		fps[i] = fingerprint{id: w.ID, mod: w.ModifiedDate}
	}
	return fps
}

func programFingerprints(programs []models.Program) []fingerprint {
	fps := make([]fingerprint, len(programs))
	for i, p := range programs {
		fps[i] = fingerprint{id: p.ID, mod: p.ModifiedDate}
	}
	return fps
}

func equalFingerprints(a, b []fingerprint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].id != b[i].id || !a[i].mod.Equal(b[i].mod) {
			return false
		}
	}
	return true
}

// NewerWins resolves a concurrent edit by modified_date: the copy with
// the later timestamp is kept. Ties keep the remote copy.
func NewerWins(local, remote time.Time) string {
	if local.After(remote) {
		return "local"
	}
	return "remote"
}
