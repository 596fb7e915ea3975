package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/ghostgym/internal/models"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	workouts, total, err := s.db.ListWorkouts(r.Context(), user.ID, parseListOptions(r))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workouts":    workouts,
		"total_count": total,
	})
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	workout, err := s.db.GetWorkout(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var workout models.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := workout.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.db.CreateWorkout(r.Context(), user.ID, workout)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var workout models.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	workout.ID = chi.URLParam(r, "id")
	if err := workout.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.db.UpdateWorkout(r.Context(), user.ID, workout)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if err := s.db.DeleteWorkout(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
