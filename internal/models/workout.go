package models

import (
	"fmt"
	"time"
)

// MaxSlotsPerGroup bounds the number of exercises in one group. The limit
// matches the original a-z slot convention.
const MaxSlotsPerGroup = 26

// ExerciseSlot is one exercise position within a group. Slots are an
// explicit ordered list; Index is the position shown to the user.
type ExerciseSlot struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// ExerciseGroup is a block of exercises performed together with shared
// sets/reps/rest prescription. Sets, reps and rest are free-form strings
// ("3", "8-12", "90s") because users write ranges and units into them.
type ExerciseGroup struct {
	GroupID           string         `json:"group_id,omitempty"`
	Slots             []ExerciseSlot `json:"slots"`
	Sets              string         `json:"sets"`
	Reps              string         `json:"reps"`
	Rest              string         `json:"rest,omitempty"`
	DefaultWeight     string         `json:"default_weight,omitempty"`
	DefaultWeightUnit string         `json:"default_weight_unit,omitempty"`
	Notes             string         `json:"notes,omitempty"`
}

// Validate checks slot count and index ordering.
func (g *ExerciseGroup) Validate() error {
	if len(g.Slots) > MaxSlotsPerGroup {
		return fmt.Errorf("exercise group has %d slots, max %d", len(g.Slots), MaxSlotsPerGroup)
	}
	for i, s := range g.Slots {
		if s.Index != i {
			return fmt.Errorf("slot %d has index %d, want %d", i, s.Index, i)
		}
	}
	return nil
}

// BonusExercise is a single optional exercise appended after the main groups.
type BonusExercise struct {
	Name       string `json:"name"`
	Sets       string `json:"sets"`
	Reps       string `json:"reps"`
	Rest       string `json:"rest,omitempty"`
	Notes      string `json:"notes,omitempty"`
	ExerciseID string `json:"exercise_id,omitempty"`
}

// Workout is a reusable exercise template.
type Workout struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Tags           []string        `json:"tags"`
	ExerciseGroups []ExerciseGroup `json:"exercise_groups"`
	BonusExercises []BonusExercise `json:"bonus_exercises,omitempty"`
	CreatedDate    time.Time       `json:"created_date"`
	ModifiedDate   time.Time       `json:"modified_date"`
	IsTemplate     bool            `json:"is_template"`
}

// Complete reports whether the workout can be saved: at least one exercise
// group with a named slot. Checked at save time only, not a stored invariant.
func (w *Workout) Complete() bool {
	for _, g := range w.ExerciseGroups {
		for _, s := range g.Slots {
			if s.Name != "" {
				return true
			}
		}
	}
	return false
}

// Validate checks the save-time rules for a workout.
func (w *Workout) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workout name is required")
	}
	if !w.Complete() {
		return fmt.Errorf("workout needs at least one exercise group with a named exercise")
	}
	for i := range w.ExerciseGroups {
		if err := w.ExerciseGroups[i].Validate(); err != nil {
			return fmt.Errorf("group %d: %w", i, err)
		}
	}
	return nil
}
