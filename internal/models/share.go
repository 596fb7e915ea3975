package models

import "time"

// SharedWorkout is a workout published under a share token. The embedded
// workout is a snapshot taken at share time; later edits to the source do
// not flow through.
type SharedWorkout struct {
	Token       string     `json:"token"`
	Workout     Workout    `json:"workout"`
	CreatorName string     `json:"creator_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
