package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/ghostgym/internal/storage"
)

// fakeResolver maps one known token to a user.
type fakeResolver struct {
	token string
	user  *storage.UserRow
}

func (f *fakeResolver) GetUserByToken(_ context.Context, token string) (*storage.UserRow, error) {
	if token == f.token {
		return f.user, nil
	}
	return nil, storage.ErrNotFound
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestBearerAuth verifies missing, invalid and valid tokens, and that
// the user lands in the request context.
func TestBearerAuth(t *testing.T) {
	resolver := &fakeResolver{token: "tok-123", user: &storage.UserRow{Email: "a@b.c"}}
	var got *storage.UserRow
	handler := BearerAuth(resolver, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic tok-123", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer tok-123", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v3/workouts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
	if got == nil || got.Email != "a@b.c" {
		t.Fatalf("context user = %+v, want resolved user", got)
	}
}

// TestCORSPreflight verifies OPTIONS requests short-circuit with the
// CORS headers set.
func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight reached inner handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v3/workouts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}

// TestParseListOptions verifies pagination and tag parsing, including
// comma-separated tags.
func TestParseListOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/v3/workouts?page=2&page_size=10&search=push&tags=upper,strength&tags=gym", nil)

	opts := parseListOptions(req)
	if opts.Page != 2 || opts.PageSize != 10 {
		t.Fatalf("page window = (%d,%d), want (2,10)", opts.Page, opts.PageSize)
	}
	if opts.Search != "push" {
		t.Fatalf("search = %q, want push", opts.Search)
	}
	if len(opts.Tags) != 3 {
		t.Fatalf("tags = %v, want 3 entries", opts.Tags)
	}

	empty := parseListOptions(httptest.NewRequest(http.MethodGet, "/api/v3/workouts", nil))
	if empty.Page != 0 || empty.PageSize != 0 || len(empty.Tags) != 0 {
		t.Fatalf("zero-value options = %+v", empty)
	}
}
