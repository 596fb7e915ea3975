package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type shareRequest struct {
	WorkoutID       string `json:"workoutId"`
	ShowCreatorName bool   `json:"showCreatorName"`
	ExpiresInDays   int    `json:"expiresInDays"`
}

func (s *Server) handleShareWorkout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.WorkoutID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "workoutId is required")
		return
	}

	workout, err := s.db.GetWorkout(r.Context(), user.ID, req.WorkoutID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().UTC().AddDate(0, 0, req.ExpiresInDays)
		expiresAt = &t
	}
	creatorName := ""
	if req.ShowCreatorName {
		creatorName = user.DisplayName
	}

	share, err := s.db.CreateShare(r.Context(), user.ID, creatorName, *workout, expiresAt)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	s.log.Info("workout shared", "user", user.ID, "workout", req.WorkoutID, "token", share.Token)
	writeJSON(w, http.StatusCreated, share)
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	share, err := s.db.GetShare(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

type saveShareRequest struct {
	CustomName string `json:"customName"`
}

func (s *Server) handleSaveShare(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req saveShareRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	share, err := s.db.GetShare(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	// Copy into the user's library under a fresh ID.
	copied := share.Workout
	copied.ID = ""
	if req.CustomName != "" {
		copied.Name = req.CustomName
	}
	created, err := s.db.CreateWorkout(r.Context(), user.ID, copied)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if err := s.db.DeleteShare(r.Context(), user.ID, chi.URLParam(r, "token")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
