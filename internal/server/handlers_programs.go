package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/ghostgym/internal/models"
)

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	programs, total, err := s.db.ListPrograms(r.Context(), user.ID, parseListOptions(r))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"programs":    programs,
		"total_count": total,
	})
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	program, err := s.db.GetProgram(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var program models.Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := program.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.db.CreateProgram(r.Context(), user.ID, program)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var program models.Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	program.ID = chi.URLParam(r, "id")
	if err := program.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.db.UpdateProgram(r.Context(), user.ID, program)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if err := s.db.DeleteProgram(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
