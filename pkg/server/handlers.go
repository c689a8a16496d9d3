package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ingest"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// fail maps an error to a status code. Storage details stay in the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.IsType(err, errors.ErrorTypeValidation), errors.IsType(err, errors.ErrorTypeParse):
		writeError(w, http.StatusBadRequest, err.Error())
	case stderrors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest accepts newline-delimited JSON, one JSON record or a JSON
// array of records. The format is detected from the body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer body.Close()

	posts, err := ingest.Decode(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	n, err := s.store.Ingest(r.Context(), posts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.WithField("records", n).Info("Ingested submission")
	writeJSON(w, http.StatusOK, map[string]int{"ingested": n})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.Groups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGroupPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, err := s.store.PostsInGroup(r.Context(), chi.URLParam(r, "slug"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultPageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, stderrors.New("limit must be a positive integer")
	}
	if n > maxPageSize {
		n = maxPageSize
	}
	return n, nil
}
