package models

import (
	"fmt"
	"time"
)

// ProgramWorkout references a workout by ID within a program schedule.
// It is a weak reference: deleting the workout does not touch the program.
type ProgramWorkout struct {
	WorkoutID  string `json:"workout_id"`
	OrderIndex int    `json:"order_index"`
	CustomName string `json:"custom_name,omitempty"`
	CustomDate string `json:"custom_date,omitempty"`
}

// Program is an ordered collection of workouts with scheduling metadata.
type Program struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	DurationWeeks   int              `json:"duration_weeks,omitempty"`
	DifficultyLevel string           `json:"difficulty_level,omitempty"`
	Tags            []string         `json:"tags"`
	Workouts        []ProgramWorkout `json:"workouts"`
	CreatedDate     time.Time        `json:"created_date"`
	ModifiedDate    time.Time        `json:"modified_date"`
}

// Validate checks the save-time rules for a program. Empty programs are
// allowed; workouts are attached over time.
func (p *Program) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("program name is required")
	}
	for i, w := range p.Workouts {
		if w.WorkoutID == "" {
			return fmt.Errorf("program workout %d has no workout_id", i)
		}
	}
	return nil
}
