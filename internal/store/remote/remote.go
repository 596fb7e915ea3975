// Package remote is the authenticated persistence adapter: a client for
// the Ghost Gym /api/v3 REST backend. Bearer tokens come from an
// auth.TokenSource; GET traffic is deduplicated through a dedup.Cache.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/ghostgym/internal/auth"
	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/dedup"
)

// Collections the dedup cache scopes invalidation by, beyond the two the
// router routes.
const (
	collectionExercises = "exercises"
	collectionFavorites = "favorites"
	collectionSessions  = "workout_sessions"
)

// APIError carries the backend's error payload for a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Retryable reports whether the failure is worth replaying later:
// transport errors and server-side (5xx) statuses are, client errors
// are not.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	if errors.Is(err, store.ErrAuthRequired) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Client implements store.Adapter over the REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
	cache      *dedup.Cache
}

// Compile-time check: Client satisfies the adapter interface.
var _ store.Adapter = (*Client)(nil)

// New creates a Client for the given base URL. cache may be nil to
// disable GET deduplication.
func New(baseURL string, tokens auth.TokenSource, cache *dedup.Cache) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		cache:      cache,
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	token, err := c.tokens.IDToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", store.ErrAuthRequired, path)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remote: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Detail = payload.Detail
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", store.ErrNotFound, apiErr.Error())
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("remote: decode %s: %w", path, err)
		}
	}
	return nil
}

// get routes read traffic through the dedup cache when one is configured.
// The cache key is the exact request URL.
func get[T any](ctx context.Context, c *Client, collection, path string, params url.Values) (T, error) {
	var zero T
	if c.cache == nil {
		var out T
		if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
			return zero, err
		}
		return out, nil
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	v, err := c.cache.Do(collection, u, func() (any, error) {
		var out T
		if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func (c *Client) invalidate(collection string) {
	if c.cache != nil {
		c.cache.Invalidate(collection)
	}
}

func listParams(opts store.ListOptions) url.Values {
	params := url.Values{}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	for _, tag := range opts.Tags {
		params.Add("tags", tag)
	}
	return params
}

// --- Workouts ---

type workoutList struct {
	Workouts   []models.Workout `json:"workouts"`
	TotalCount int              `json:"total_count"`
}

// ListWorkouts fetches a page of workout templates.
func (c *Client) ListWorkouts(ctx context.Context, opts store.ListOptions) ([]models.Workout, error) {
	resp, err := get[workoutList](ctx, c, store.CollectionWorkouts, "/api/v3/firebase/workouts", listParams(opts))
	if err != nil {
		return nil, err
	}
	return resp.Workouts, nil
}

// GetWorkout fetches one workout by ID.
func (c *Client) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	w, err := get[models.Workout](ctx, c, store.CollectionWorkouts, "/api/v3/firebase/workouts/"+id, nil)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWorkout creates a workout; the backend assigns ID and timestamps.
func (c *Client) CreateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	var created models.Workout
	if err := c.do(ctx, http.MethodPost, "/api/v3/firebase/workouts", nil, w, &created); err != nil {
		return nil, err
	}
	c.invalidate(store.CollectionWorkouts)
	return &created, nil
}

// UpdateWorkout replaces a workout by ID.
func (c *Client) UpdateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	var updated models.Workout
	if err := c.do(ctx, http.MethodPut, "/api/v3/firebase/workouts/"+w.ID, nil, w, &updated); err != nil {
		return nil, err
	}
	c.invalidate(store.CollectionWorkouts)
	return &updated, nil
}

// DeleteWorkout deletes a workout by ID.
func (c *Client) DeleteWorkout(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v3/firebase/workouts/"+id, nil, nil, nil); err != nil {
		return err
	}
	c.invalidate(store.CollectionWorkouts)
	return nil
}

// --- Programs ---

type programList struct {
	Programs   []models.Program `json:"programs"`
	TotalCount int              `json:"total_count"`
}

// ListPrograms fetches a page of programs.
func (c *Client) ListPrograms(ctx context.Context, opts store.ListOptions) ([]models.Program, error) {
	resp, err := get[programList](ctx, c, store.CollectionPrograms, "/api/v3/firebase/programs", listParams(opts))
	if err != nil {
		return nil, err
	}
	return resp.Programs, nil
}

// GetProgram fetches one program by ID.
func (c *Client) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	p, err := get[models.Program](ctx, c, store.CollectionPrograms, "/api/v3/firebase/programs/"+id, nil)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProgram creates a program.
func (c *Client) CreateProgram(ctx context.Context, p models.Program) (*models.Program, error) {
	var created models.Program
	if err := c.do(ctx, http.MethodPost, "/api/v3/firebase/programs", nil, p, &created); err != nil {
		return nil, err
	}
	c.invalidate(store.CollectionPrograms)
	return &created, nil
}

// UpdateProgram replaces a program by ID.
func (c *Client) UpdateProgram(ctx context.Context, p models.Program) (*models.Program, error) {
	var updated models.Program
	if err := c.do(ctx, http.MethodPut, "/api/v3/firebase/programs/"+p.ID, nil, p, &updated); err != nil {
		return nil, err
	}
	c.invalidate(store.CollectionPrograms)
	return &updated, nil
}

// DeleteProgram deletes a program by ID.
func (c *Client) DeleteProgram(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v3/firebase/programs/"+id, nil, nil, nil); err != nil {
		return err
	}
	c.invalidate(store.CollectionPrograms)
	return nil
}
