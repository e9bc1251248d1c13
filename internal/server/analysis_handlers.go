package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hookscope/internal/analysis"
	"hookscope/internal/core"
	"hookscope/internal/render"
	"hookscope/internal/store"
)

// handleAnalyze handles POST /analyze. Generation problems come back as a
// degraded 200 response; only invalid input is an error.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req core.AnalysisRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondValidation(w, r, &analysis.ValidationError{Fields: []analysis.FieldError{{Field: "body", Message: err.Error()}}})
		return
	}

	resp, err := s.deps.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		var ve *analysis.ValidationError
		if errors.As(err, &ve) {
			s.respondValidation(w, r, err)
			return
		}
		s.log.Error("Analysis failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		s.respondError(w, r, http.StatusInternalServerError, ErrorDetail{Code: CodeUnexpected, Message: err.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) historyEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.History != nil {
		return true
	}
	s.respondError(w, r, http.StatusServiceUnavailable, ErrorDetail{
		Code:    CodeStoreDisabled,
		Message: "analysis history is disabled (store.enabled=false)",
	})
	return false
}

// handleListAnalyses handles GET /analyses
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w, r) {
		return
	}
	p := newParams(r)
	opts := store.ListOptions{
		Limit:        p.Query("limit", 20, 1, 100),
		Offset:       p.Query("offset", 0, 0, maxID),
		DegradedOnly: r.URL.Query().Get("degraded") == "true",
	}
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	items, err := s.deps.History.ListAnalyses(r.Context(), opts)
	if err != nil {
		s.log.Error("Failed to list analyses", "error", err)
		s.respondError(w, r, http.StatusInternalServerError, ErrorDetail{Code: CodeUnexpected, Message: err.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"request_id": middleware.GetReqID(r.Context()),
		"count":      len(items),
		"items":      items,
	})
}

// handleGetAnalysis handles GET /analyses/{id}
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w, r) {
		return
	}

	resp, err := s.deps.History.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, ErrorDetail{Code: CodeNotFound, Message: "analysis not found"})
		return
	}
	if err != nil {
		s.log.Error("Failed to load analysis", "error", err)
		s.respondError(w, r, http.StatusInternalServerError, ErrorDetail{Code: CodeUnexpected, Message: err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleDeleteAnalysis handles DELETE /analyses/{id}
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	err := s.deps.History.DeleteAnalysis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, ErrorDetail{Code: CodeNotFound, Message: "analysis not found"})
		return
	}
	if err != nil {
		s.log.Error("Failed to delete analysis", "id", id, "error", err)
		s.respondError(w, r, http.StatusInternalServerError, ErrorDetail{Code: CodeUnexpected, Message: err.Error()})
		return
	}
	s.log.Info("Deleted analysis", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalysisMarkdown handles GET /analyses/{id}/markdown
func (s *Server) handleAnalysisMarkdown(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w, r) {
		return
	}

	resp, err := s.deps.History.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, ErrorDetail{Code: CodeNotFound, Message: "analysis not found"})
		return
	}
	if err != nil {
		s.log.Error("Failed to load analysis", "error", err)
		s.respondError(w, r, http.StatusInternalServerError, ErrorDetail{Code: CodeUnexpected, Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", render.Filename(resp)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(render.Markdown(r.URL.Query().Get("title"), resp))); err != nil {
		s.log.Warn("Failed to write markdown response", "error", err)
	}
}
