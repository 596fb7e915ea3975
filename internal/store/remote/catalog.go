package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/claude/ghostgym/internal/models"
)

// ExerciseFilter narrows catalog queries server-side.
type ExerciseFilter struct {
	Search      string
	MuscleGroup string
	Equipment   string
}

func (f ExerciseFilter) params() url.Values {
	params := url.Values{}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.MuscleGroup != "" {
		params.Set("muscle_group", f.MuscleGroup)
	}
	if f.Equipment != "" {
		params.Set("equipment", f.Equipment)
	}
	return params
}

type exerciseList struct {
	Exercises []models.Exercise `json:"exercises"`
}

// ListExercises queries the global exercise catalog.
func (c *Client) ListExercises(ctx context.Context, f ExerciseFilter) ([]models.Exercise, error) {
	resp, err := get[exerciseList](ctx, c, collectionExercises, "/api/v3/exercises", f.params())
	if err != nil {
		return nil, err
	}
	return resp.Exercises, nil
}

// ListCustomExercises returns the user's own catalog entries.
func (c *Client) ListCustomExercises(ctx context.Context) ([]models.Exercise, error) {
	resp, err := get[exerciseList](ctx, c, collectionExercises, "/api/v3/users/me/exercises", nil)
	if err != nil {
		return nil, err
	}
	return resp.Exercises, nil
}

// CreateCustomExercise adds a user-authored exercise.
func (c *Client) CreateCustomExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error) {
	var created models.Exercise
	if err := c.do(ctx, http.MethodPost, "/api/v3/users/me/exercises", nil, e, &created); err != nil {
		return nil, err
	}
	c.invalidate(collectionExercises)
	return &created, nil
}

type favoriteList struct {
	Favorites []models.Favorite `json:"favorites"`
}

// ListFavorites returns the user's favorited exercise IDs.
func (c *Client) ListFavorites(ctx context.Context) ([]string, error) {
	resp, err := get[favoriteList](ctx, c, collectionFavorites, "/api/v3/users/me/favorites", nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Favorites))
	for _, f := range resp.Favorites {
		ids = append(ids, f.ExerciseID)
	}
	return ids, nil
}

// AddFavorite favorites an exercise. Adding an existing favorite is a no-op
// server-side.
func (c *Client) AddFavorite(ctx context.Context, exerciseID string) error {
	body := models.Favorite{ExerciseID: exerciseID}
	if err := c.do(ctx, http.MethodPost, "/api/v3/users/me/favorites", nil, body, nil); err != nil {
		return err
	}
	c.invalidate(collectionFavorites)
	return nil
}

// RemoveFavorite unfavorites an exercise.
func (c *Client) RemoveFavorite(ctx context.Context, exerciseID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v3/users/me/favorites/"+exerciseID, nil, nil, nil); err != nil {
		return err
	}
	c.invalidate(collectionFavorites)
	return nil
}
