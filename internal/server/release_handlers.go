package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"hookscope/internal/core"
	"hookscope/internal/prtimes"
	"hookscope/internal/ranking"
	"hookscope/internal/trends"
)

const (
	statsConcurrency     = 4
	companyStatsPageSize = 100
	companyStatsDetailed = 10
	trendingCategories   = 10
	trendingPerCategory  = 20
)

// ReleaseWithStats is a release with its statistics merged into the same
// JSON object.
type ReleaseWithStats struct {
	core.Release
	Statistics core.ReleaseStatistics `json:"statistics,omitempty"`
}

func (p *params) releaseQuery(defPerPage int) prtimes.ReleaseQuery {
	return prtimes.ReleaseQuery{
		PerPage:  p.Query("per_page", defPerPage, 1, 999),
		Page:     p.Query("page", 0, 0, 99),
		FromDate: p.Date("from_date"),
		ToDate:   p.Date("to_date"),
	}
}

// handleCategoryReleases handles GET /categories/{id}/releases
func (s *Server) handleCategoryReleases(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	categoryID := p.Path("id", "category_id", 1, maxID)
	q := p.releaseQuery(30)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	releases, err := s.deps.Upstream.CategoryReleases(r.Context(), categoryID, q)
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"request_id":  middleware.GetReqID(r.Context()),
		"category_id": categoryID,
		"count":       len(releases),
		"items":       releases,
	})
}

// handleCompanyReleases handles GET /companies/{id}/releases. The releases
// are returned as a plain array.
func (s *Server) handleCompanyReleases(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	companyID := p.Path("id", "company_id", 1, maxID)
	q := p.releaseQuery(30)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	releases, err := s.deps.Upstream.CompanyReleases(r.Context(), int64(companyID), q)
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, releases)
}

// handleReleaseStatistics handles GET /companies/{id}/releases/{releaseID}/statistics
func (s *Server) handleReleaseStatistics(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	companyID := p.Path("id", "company_id", 1, maxID)
	releaseID := p.Path("releaseID", "release_id", 1, maxID)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	stats, err := s.deps.Upstream.ReleaseStatistics(r.Context(), int64(companyID), int64(releaseID))
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"request_id": middleware.GetReqID(r.Context()),
		"statistics": stats,
	})
}

// withStatistics fetches statistics for each release concurrently. When
// strict is false a failed lookup leaves that release without statistics.
func (s *Server) withStatistics(ctx context.Context, releases []core.Release, strict bool) ([]ReleaseWithStats, error) {
	out := make([]ReleaseWithStats, len(releases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsConcurrency)

	for i, rel := range releases {
		out[i] = ReleaseWithStats{Release: rel}
		g.Go(func() error {
			stats, err := s.deps.Upstream.ReleaseStatistics(gctx, rel.CompanyID, rel.ReleaseID)
			if err != nil {
				if strict {
					return err
				}
				s.log.Debug("Statistics unavailable", "company_id", rel.CompanyID, "release_id", rel.ReleaseID, "error", err)
				return nil
			}
			out[i].Statistics = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// handleCompanyStats handles GET /stats/companies/{id}
func (s *Server) handleCompanyStats(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	companyID := p.Path("id", "company_id", 1, maxID)
	from := p.Date("from_date")
	to := p.Date("to_date")
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	releases, err := s.deps.Upstream.CompanyReleases(r.Context(), int64(companyID), prtimes.ReleaseQuery{
		PerPage:  companyStatsPageSize,
		FromDate: from,
		ToDate:   to,
	})
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	recent := releases
	if len(recent) > companyStatsDetailed {
		recent = recent[:companyStatsDetailed]
	}
	detailed, err := s.withStatistics(r.Context(), recent, false)
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	recentStats := make([]map[string]any, 0, len(detailed))
	for _, d := range detailed {
		if len(d.Statistics) == 0 {
			continue
		}
		recentStats = append(recentStats, map[string]any{
			"release_id": d.ReleaseID,
			"title":      d.Title,
			"created_at": d.CreatedAt,
			"statistics": d.Statistics,
		})
	}

	period := map[string]string{"from": "all", "to": "all"}
	if from != "" {
		period["from"] = from
	}
	if to != "" {
		period["to"] = to
	}

	summary := trends.Summarize(releases)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"request_id": middleware.GetReqID(r.Context()),
		"company_id": companyID,
		"period":     period,
		"summary": map[string]any{
			"total_releases": summary.TotalReleases,
			"total_likes":    summary.TotalLikes,
			"avg_likes":      summary.AvgLikes,
			"date_range":     summary.DateRange,
		},
		"recent_releases_stats": recentStats,
	})
}

// handleTrending handles GET /trending. Categories that fail are skipped.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	limit := p.Query("limit", 10, 1, 50)
	days := p.Query("days", 7, 1, 30)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	now := s.now()
	q := prtimes.ReleaseQuery{
		PerPage:  trendingPerCategory,
		FromDate: now.AddDate(0, 0, -days).Format(time.DateOnly),
		ToDate:   now.Format(time.DateOnly),
	}

	perCategory := make([][]core.Release, trendingCategories)
	var g errgroup.Group
	g.SetLimit(statsConcurrency)
	for i := range perCategory {
		categoryID := i + 1
		g.Go(func() error {
			releases, err := s.deps.Upstream.CategoryReleases(r.Context(), categoryID, q)
			if err != nil {
				s.log.Warn("Skipping category for trending", "category_id", categoryID, "error", err)
				return nil
			}
			perCategory[i] = releases
			return nil
		})
	}
	_ = g.Wait()

	var all []core.Release
	for _, releases := range perCategory {
		all = append(all, releases...)
	}

	top := ranking.Rank(all, ranking.ByPopularity, limit)
	enriched, err := s.withStatistics(r.Context(), top, false)
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"request_id":        middleware.GetReqID(r.Context()),
		"period_days":       days,
		"count":             len(enriched),
		"trending_releases": enriched,
	})
}
