package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claude/ghostgym/internal/models"
)

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var sess models.Session
	if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if sess.WorkoutID == "" || sess.StartedAt.IsZero() {
		writeDetail(w, http.StatusUnprocessableEntity, "workoutId and startedAt are required")
		return
	}

	completed, err := s.db.CompleteSession(r.Context(), user.ID, sess)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, completed)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := s.db.QuerySessions(r.Context(), user.ID, limit)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.CompletedSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

type migrateRequest struct {
	Programs []models.Program `json:"programs"`
	Workouts []models.Workout `json:"workouts"`
}

func (s *Server) handleMigrateData(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	counts, err := s.db.MigrateUserData(r.Context(), user.ID, req.Programs, req.Workouts)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	s.log.Info("client data migrated", "user", user.ID,
		"workouts", counts.Workouts, "programs", counts.Programs)
	writeJSON(w, http.StatusOK, counts)
}
