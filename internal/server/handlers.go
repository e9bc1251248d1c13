package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"hookscope/internal/core"
	"hookscope/internal/directory"
)

const (
	serviceName    = "hookscope"
	serviceVersion = "1.0.0"
	probeTimeout   = 10 * time.Second
	maxID          = 1<<31 - 1
)

var serverStartTime = time.Now()

var endpoints = []string{
	"GET  /",
	"GET  /healthz",
	"GET  /health/detailed",
	"GET  /industries",
	"GET  /industries/{industry_id}/companies",
	"GET  /categories",
	"GET  /categories/{category_id}/releases",
	"GET  /companies",
	"GET  /companies/{company_id}/releases",
	"GET  /companies/{company_id}/releases/{release_id}/statistics",
	"GET  /rag/context/{category_id}",
	"POST /rag/categories/{category_id}",
	"POST /analyze",
	"GET  /analyses",
	"GET  /analyses/{id}",
	"DELETE /analyses/{id}",
	"GET  /analyses/{id}/markdown",
	"GET  /stats/companies/{company_id}",
	"GET  /trending",
	"GET  /debug/config",
	"GET  /debug/cache/clear",
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service":   serviceName,
		"version":   serviceVersion,
		"base_url":  s.deps.BaseURL,
		"model":     s.deps.Analyzer.ModelName(),
		"endpoints": endpoints,
	})
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

// DetailedHealth is the /health/detailed payload.
type DetailedHealth struct {
	Status     string         `json:"status"`
	Timestamp  string         `json:"timestamp"`
	Uptime     string         `json:"uptime"`
	Components map[string]any `json:"components"`
}

// handleDetailedHealth probes the content API with a one-item page and
// reports the state of every component.
func (s *Server) handleDetailedHealth(w http.ResponseWriter, r *http.Request) {
	health := DetailedHealth{
		Status:     "ok",
		Timestamp:  s.now().Format(time.RFC3339),
		Uptime:     time.Since(serverStartTime).Round(time.Second).String(),
		Components: map[string]any{},
	}

	if s.deps.Analyzer.Configured() {
		health.Components["gemini"] = "configured"
	} else {
		health.Components["gemini"] = "not_configured"
	}
	if s.deps.Generation != nil {
		health.Components["generation"] = s.deps.Generation.Stats()
	}
	health.Components["companies_cache"] = s.deps.Companies.Stats()

	if s.deps.History != nil {
		if err := s.deps.History.Ping(r.Context()); err != nil {
			health.Components["store"] = "error: " + err.Error()
			health.Status = "degraded"
		} else {
			health.Components["store"] = "ok"
		}
	} else {
		health.Components["store"] = "disabled"
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	if _, err := s.deps.Upstream.Companies(ctx, 1, 0); err != nil {
		health.Components["prtimes_api"] = "error: " + err.Error()
		health.Status = "degraded"
	} else {
		health.Components["prtimes_api"] = "ok"
	}

	s.respondJSON(w, http.StatusOK, health)
}

// handleIndustries handles GET /industries
func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"industries": core.SortedTable(core.Industries)})
}

// handleCategories handles GET /categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"categories": core.SortedTable(core.Categories)})
}

// handleCompanies handles GET /companies. The cached directory is returned
// as a plain array.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, _, err := s.deps.Companies.GetOrRefresh(r.Context())
	if err != nil {
		s.log.Error("Failed to load company directory", "request_id", middleware.GetReqID(r.Context()), "error", err)
		s.respondError(w, r, http.StatusServiceUnavailable, ErrorDetail{
			Code:    CodeCompaniesFetch,
			Message: "企業一覧の取得に失敗しました。しばらく待ってから再試行してください。",
		})
		return
	}
	s.respondJSON(w, http.StatusOK, companies)
}

// IndustryCompanies is the /industries/{id}/companies payload.
type IndustryCompanies struct {
	RequestID    string         `json:"request_id"`
	IndustryID   int            `json:"industry_id"`
	IndustryName string         `json:"industry_name"`
	TotalCount   int            `json:"total_count"`
	Count        int            `json:"count"`
	Items        []core.Company `json:"items"`
}

// handleIndustryCompanies handles GET /industries/{id}/companies
func (s *Server) handleIndustryCompanies(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	industryID := p.Path("id", "industry_id", 1, len(core.Industries))
	perPage := p.Query("per_page", 100, 1, 999)
	page := p.Query("page", 0, 0, 99)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	all, _, err := s.deps.Companies.GetOrRefresh(r.Context())
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	name := core.Industries[industryID]
	matched := directory.FilterByIndustry(all, name)
	items := directory.Paginate(matched, perPage, page)

	s.respondJSON(w, http.StatusOK, IndustryCompanies{
		RequestID:    middleware.GetReqID(r.Context()),
		IndustryID:   industryID,
		IndustryName: name,
		TotalCount:   len(matched),
		Count:        len(items),
		Items:        items,
	})
}

// handleDebugConfig handles GET /debug/config. Secrets are never included.
func (s *Server) handleDebugConfig(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"settings":        s.deps.Settings,
		"model":           s.deps.Analyzer.ModelName(),
		"store_enabled":   s.deps.History != nil,
		"companies_cache": s.deps.Companies.Stats(),
	})
}

// handleClearCache handles GET /debug/cache/clear
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.deps.Companies.Clear()
	s.log.Info("Company cache cleared", "request_id", middleware.GetReqID(r.Context()))
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "cache_cleared",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
