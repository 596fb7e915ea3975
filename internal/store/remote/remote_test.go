package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/ghostgym/internal/auth"
	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/store"
	"github.com/claude/ghostgym/internal/store/dedup"
)

func signedIn() *auth.StaticTokenSource {
	return auth.NewStaticTokenSource(&auth.User{UID: "u1", Email: "u1@example.com"}, "tok-123")
}

func sample(name string) models.Workout {
	return models.Workout{Name: name}
}

// TestListWorkoutsRequest verifies the request shape: bearer header, path
// and query parameters, plus envelope decoding.
func TestListWorkoutsRequest(t *testing.T) {
	var gotAuth string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/firebase/workouts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"workouts":[{"id":"workout-1","name":"Leg Day"}],"total_count":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, signedIn(), nil)
	workouts, err := c.ListWorkouts(context.Background(), store.ListOptions{
		Page: 2, PageSize: 10, Search: "leg", Tags: []string{"lower", "strength"},
	})
	if err != nil {
		t.Fatalf("ListWorkouts() error = %v", err)
	}
	if len(workouts) != 1 || workouts[0].ID != "workout-1" || workouts[0].Name != "Leg Day" {
		t.Fatalf("ListWorkouts() = %+v", workouts)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotQuery.Get("page") != "2" || gotQuery.Get("page_size") != "10" || gotQuery.Get("search") != "leg" {
		t.Fatalf("query = %v", gotQuery)
	}
	if tags := gotQuery["tags"]; len(tags) != 2 || tags[0] != "lower" || tags[1] != "strength" {
		t.Fatalf("tags = %v", gotQuery["tags"])
	}
}

// TestSignedOutShortCircuits verifies a signed-out token source yields
// ErrAuthRequired without any HTTP traffic.
func TestSignedOutShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL, auth.NewStaticTokenSource(nil, ""), nil)
	if _, err := c.ListWorkouts(context.Background(), store.ListOptions{}); !errors.Is(err, store.ErrAuthRequired) {
		t.Fatalf("ListWorkouts() error = %v, want ErrAuthRequired", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server hit %d times while signed out", hits.Load())
	}
}

// TestNotFoundMapsToErrNotFound verifies a backend 404 surfaces as the
// shared not-found error, keeping the detail message.
func TestNotFoundMapsToErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"workout not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, signedIn(), nil)
	_, err := c.GetWorkout(context.Background(), "workout-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetWorkout() error = %v, want ErrNotFound", err)
	}
}

// TestAPIErrorCarriesDetail verifies non-2xx responses decode the backend
// error envelope into an APIError.
func TestAPIErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"name is required"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, signedIn(), nil)
	_, err := c.CreateWorkout(context.Background(), sample("nameless"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CreateWorkout() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Detail != "name is required" {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if Retryable(err) {
		t.Fatal("422 classified as retryable")
	}
}

// TestRetryableClassification covers the replay decision: server errors
// and transport failures retry, client and auth errors do not.
func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &APIError{Status: 500}, true},
		{"bad gateway", &APIError{Status: 502}, true},
		{"validation error", &APIError{Status: 422}, false},
		{"forbidden", &APIError{Status: 403}, false},
		{"auth required", store.ErrAuthRequired, false},
		{"transport failure", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("refused")}, true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestDedupCollapsesRepeatedReads verifies repeated list calls within the
// cache TTL make one HTTP request, and a mutation forces a refetch.
func TestDedupCollapsesRepeatedReads(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"workout-new","name":"Fresh"}`))
			return
		}
		gets.Add(1)
		w.Write([]byte(`{"workouts":[],"total_count":0}`))
	}))
	defer srv.Close()

	c := New(srv.URL, signedIn(), dedup.New(time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.ListWorkouts(ctx, store.ListOptions{}); err != nil {
			t.Fatalf("ListWorkouts() error = %v", err)
		}
	}
	if gets.Load() != 1 {
		t.Fatalf("GETs = %d, want 1 within TTL", gets.Load())
	}

	if _, err := c.CreateWorkout(ctx, sample("Fresh")); err != nil {
		t.Fatalf("CreateWorkout() error = %v", err)
	}
	if _, err := c.ListWorkouts(ctx, store.ListOptions{}); err != nil {
		t.Fatalf("ListWorkouts() error = %v", err)
	}
	if gets.Load() != 2 {
		t.Fatalf("GETs = %d, want 2 after mutation", gets.Load())
	}
}

// TestShareRoundTrip verifies the share issue/resolve flow: the issue
// request carries the workout ID and expiry, the resolved share decodes,
// an expired token reads as not found, and saving a share retires the
// cached workout list.
func TestShareRoundTrip(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/sharing/share":
			var req struct {
				WorkoutID     string `json:"workoutId"`
				ExpiresInDays int    `json:"expiresInDays"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.WorkoutID != "workout-1" || req.ExpiresInDays != 7 {
				t.Errorf("share request = %+v", req)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"token":"tok-abc","workout":{"id":"workout-1","name":"Leg Day"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/sharing/share/tok-abc":
			w.Write([]byte(`{"token":"tok-abc","workout":{"id":"workout-1","name":"Leg Day"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/sharing/share/tok-expired":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"share not found"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/sharing/share/tok-abc/save":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"workout-copy","name":"Leg Day (shared)"}`))
		case r.URL.Path == "/api/v3/firebase/workouts":
			gets.Add(1)
			w.Write([]byte(`{"workouts":[],"total_count":0}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, signedIn(), dedup.New(time.Minute))
	ctx := context.Background()

	share, err := c.ShareWorkout(ctx, "workout-1", true, 7)
	if err != nil {
		t.Fatalf("ShareWorkout() error = %v", err)
	}
	if share.Token != "tok-abc" || share.Workout.Name != "Leg Day" {
		t.Fatalf("share = %+v", share)
	}

	resolved, err := c.GetSharedWorkout(ctx, "tok-abc")
	if err != nil || resolved.Workout.ID != "workout-1" {
		t.Fatalf("GetSharedWorkout() = %+v, %v", resolved, err)
	}

	if _, err := c.GetSharedWorkout(ctx, "tok-expired"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired token error = %v, want ErrNotFound", err)
	}

	// Saving a share adds to the library, so the cached list must refetch.
	c.ListWorkouts(ctx, store.ListOptions{})
	saved, err := c.SaveSharedWorkout(ctx, "tok-abc", "")
	if err != nil || saved.ID != "workout-copy" {
		t.Fatalf("SaveSharedWorkout() = %+v, %v", saved, err)
	}
	c.ListWorkouts(ctx, store.ListOptions{})
	if gets.Load() != 2 {
		t.Fatalf("workout list GETs = %d, want 2 (refetch after save)", gets.Load())
	}
}

// TestDeleteInvalidatesCollection verifies deletes also retire the cached
// collection reads.
func TestDeleteInvalidatesCollection(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodDelete {
			w.Write([]byte(`{"status":"deleted"}`))
			return
		}
		gets.Add(1)
		w.Write([]byte(`{"programs":[],"total_count":0}`))
	}))
	defer srv.Close()

	c := New(srv.URL, signedIn(), dedup.New(time.Minute))
	ctx := context.Background()

	c.ListPrograms(ctx, store.ListOptions{})
	c.ListPrograms(ctx, store.ListOptions{})
	if err := c.DeleteProgram(ctx, "program-1"); err != nil {
		t.Fatalf("DeleteProgram() error = %v", err)
	}
	c.ListPrograms(ctx, store.ListOptions{})

	if gets.Load() != 2 {
		t.Fatalf("GETs = %d, want 2 (one before, one after delete)", gets.Load())
	}
}
