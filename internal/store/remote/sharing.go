package remote

import (
	"context"
	"net/http"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
)

type shareRequest struct {
	WorkoutID       string `json:"workoutId"`
	ShowCreatorName bool   `json:"showCreatorName"`
	ExpiresInDays   int    `json:"expiresInDays"`
}

// ShareWorkout publishes a workout under a share token. expiresInDays 0
// means the share never expires.
func (c *Client) ShareWorkout(ctx context.Context, workoutID string, showCreatorName bool, expiresInDays int) (*models.SharedWorkout, error) {
	body := shareRequest{WorkoutID: workoutID, ShowCreatorName: showCreatorName, ExpiresInDays: expiresInDays}
	var share models.SharedWorkout
	if err := c.do(ctx, http.MethodPost, "/api/v3/sharing/share", nil, body, &share); err != nil {
		return nil, err
	}
	return &share, nil
}

// GetSharedWorkout resolves a share token; unknown and expired tokens
// surface as store.ErrNotFound.
func (c *Client) GetSharedWorkout(ctx context.Context, token string) (*models.SharedWorkout, error) {
	var share models.SharedWorkout
	if err := c.do(ctx, http.MethodGet, "/api/v3/sharing/share/"+token, nil, nil, &share); err != nil {
		return nil, err
	}
	return &share, nil
}

type saveShareRequest struct {
	CustomName string `json:"customName,omitempty"`
}

// SaveSharedWorkout copies a shared workout into the user's library,
// optionally renaming it.
func (c *Client) SaveSharedWorkout(ctx context.Context, token, customName string) (*models.Workout, error) {
	var saved models.Workout
	body := saveShareRequest{CustomName: customName}
	if err := c.do(ctx, http.MethodPost, "/api/v3/sharing/share/"+token+"/save", nil, body, &saved); err != nil {
		return nil, err
	}
	c.invalidate(store.CollectionWorkouts)
	return &saved, nil
}

// DeleteShare revokes a share the current user created.
func (c *Client) DeleteShare(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/v3/sharing/share/"+token, nil, nil, nil)
}
