// Package server is the HTTP API: /api/v3 CRUD for workouts and
// programs (with the firebase-prefixed aliases older clients still
// call), the exercise catalog, favorites, workout sharing, session
// history and the local-data migration endpoint. All routes require a
// bearer token.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/ghostgym/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v3", func(r chi.Router) {
		r.Use(BearerAuth(s.db, s.log))

		// Both the plain and the firebase-prefixed paths serve the same
		// handlers; older clients were written against the latter.
		for _, prefix := range []string{"", "/firebase"} {
			r.Route(prefix+"/workouts", func(r chi.Router) {
				r.Get("/", s.handleListWorkouts)
				r.Post("/", s.handleCreateWorkout)
				r.Get("/{id}", s.handleGetWorkout)
				r.Put("/{id}", s.handleUpdateWorkout)
				r.Delete("/{id}", s.handleDeleteWorkout)
			})
			r.Route(prefix+"/programs", func(r chi.Router) {
				r.Get("/", s.handleListPrograms)
				r.Post("/", s.handleCreateProgram)
				r.Get("/{id}", s.handleGetProgram)
				r.Put("/{id}", s.handleUpdateProgram)
				r.Delete("/{id}", s.handleDeleteProgram)
			})
		}

		r.Get("/exercises", s.handleListExercises)
		r.Route("/users/me", func(r chi.Router) {
			r.Get("/exercises", s.handleListUserExercises)
			r.Post("/exercises", s.handleCreateUserExercise)
			r.Get("/favorites", s.handleListFavorites)
			r.Post("/favorites", s.handleAddFavorite)
			r.Delete("/favorites/{id}", s.handleRemoveFavorite)
		})

		r.Route("/sharing", func(r chi.Router) {
			r.Post("/share", s.handleShareWorkout)
			r.Get("/share/{token}", s.handleGetShare)
			r.Post("/share/{token}/save", s.handleSaveShare)
			r.Delete("/share/{token}", s.handleDeleteShare)
		})

		r.Post("/workout-sessions/complete", s.handleCompleteSession)
		r.Get("/workout-sessions/history", s.handleSessionHistory)

		r.Post("/auth/migrate-data", s.handleMigrateData)
	})
}
