// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pdiddy/arxiv-lab/internal/catalog"
)

// Error messages returned in {"error": ...} bodies.
const (
	msgPaperNotFound   = "Paper ID not found"
	msgMissingQuery    = "Missing search query"
	msgEmptyQuery      = "Empty search query"
	msgInvalidEndpoint = "Invalid endpoint"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

// handleGetPaper looks up the id after /papers/. Ids that contain a slash
// (old-style "hep-th/9901001") are tried whole before the last segment.
func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/papers/")
	raw, ok := s.catalog.Get(id)
	if !ok {
		if i := strings.LastIndex(id, "/"); i >= 0 {
			raw, ok = s.catalog.Get(id[i+1:])
		}
	}
	if !ok {
		writeError(w, http.StatusNotFound, msgPaperNotFound)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := firstNonBlank(r.URL.Query()["q"])
	if q == "" {
		writeError(w, http.StatusBadRequest, msgMissingQuery)
		return
	}

	resp, err := s.catalog.Search(q)
	if errors.Is(err, catalog.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, msgEmptyQuery)
		return
	}
	if err != nil {
		panic(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// firstNonBlank returns the first non-empty value. A parameter given only
// as "q=" counts as absent.
func firstNonBlank(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, s.catalog.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "papers": s.catalog.Len()})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgInvalidEndpoint)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
