package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/claude/ghostgym/internal/storage"
	"github.com/claude/ghostgym/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes the error envelope clients parse.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeStorageError maps repository errors onto HTTP statuses.
func (s *Server) writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error("storage error", "error", err)
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

// parseListOptions reads page, page_size, search and tags query params.
// Tags accept both repeated params and one comma-separated value.
func parseListOptions(r *http.Request) store.ListOptions {
	q := r.URL.Query()
	opts := store.ListOptions{Search: q.Get("search")}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil && size > 0 {
		opts.PageSize = size
	}
	for _, raw := range q["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				opts.Tags = append(opts.Tags, tag)
			}
		}
	}
	return opts
}
