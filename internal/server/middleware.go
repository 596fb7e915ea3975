package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claude/ghostgym/internal/storage"
)

type contextKey string

const userKey contextKey = "user"

// TokenResolver maps a bearer token to an account. *storage.DB
// satisfies it; tests substitute a fake.
type TokenResolver interface {
	GetUserByToken(ctx context.Context, token string) (*storage.UserRow, error)
}

// BearerAuth returns middleware that validates the Authorization header
// and attaches the resolved user to the request context.
func BearerAuth(resolver TokenResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"detail":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			user, err := resolver.GetUserByToken(r.Context(), token)
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.Error("token lookup failed", "error", err)
				http.Error(w, `{"detail":"authentication unavailable"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// requestUser returns the authenticated user. Only valid below BearerAuth.
func requestUser(r *http.Request) *storage.UserRow {
	return r.Context().Value(userKey).(*storage.UserRow)
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
