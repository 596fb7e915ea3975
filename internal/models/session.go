package models

import "time"

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

// SessionEntry is the logged state for one exercise during a session.
// WeightChange is the delta against the previously logged weight, kept as
// a string because weights are free-form ("52.5", "bodyweight").
type SessionEntry struct {
	Exercise     string `json:"exercise"`
	Weight       string `json:"weight"`
	WeightUnit   string `json:"weight_unit"`
	WeightChange string `json:"weight_change,omitempty"`
}

// Session is an in-progress workout run. It is owned by the process until
// completion, then handed to the backend as a history record.
type Session struct {
	ID          string                  `json:"id"`
	WorkoutID   string                  `json:"workoutId"`
	WorkoutName string                  `json:"workoutName"`
	StartedAt   time.Time               `json:"startedAt"`
	Status      string                  `json:"status"`
	Exercises   map[string]SessionEntry `json:"exercises"`
}

// CompletedSession is the backend's historical record of a finished session.
type CompletedSession struct {
	ID          string                  `json:"id"`
	WorkoutID   string                  `json:"workout_id"`
	WorkoutName string                  `json:"workout_name"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt time.Time               `json:"completed_at"`
	DurationSec int                     `json:"duration_sec"`
	Exercises   map[string]SessionEntry `json:"exercises"`
}
