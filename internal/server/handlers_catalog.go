package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/ghostgym/internal/models"
	"github.com/claude/ghostgym/internal/storage"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exercises, err := s.db.QueryExercises(r.Context(), storage.ExerciseQuery{
		Search:      q.Get("search"),
		MuscleGroup: q.Get("muscle_group"),
		Equipment:   q.Get("equipment"),
	})
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

func (s *Server) handleListUserExercises(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	exercises, err := s.db.QueryUserExercises(r.Context(), user.ID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

func (s *Server) handleCreateUserExercise(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var exercise models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if exercise.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "exercise name is required")
		return
	}

	created, err := s.db.CreateUserExercise(r.Context(), user.ID, exercise)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	ids, err := s.db.QueryFavorites(r.Context(), user.ID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	favorites := make([]models.Favorite, 0, len(ids))
	for _, id := range ids {
		favorites = append(favorites, models.Favorite{ExerciseID: id})
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var fav models.Favorite
	if err := json.NewDecoder(r.Body).Decode(&fav); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if fav.ExerciseID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "exerciseId is required")
		return
	}

	if err := s.db.AddFavorite(r.Context(), user.ID, fav.ExerciseID); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "favorited"})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if err := s.db.RemoveFavorite(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
