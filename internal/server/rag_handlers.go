package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"hookscope/internal/analysis"
	"hookscope/internal/core"
	"hookscope/internal/prtimes"
	"hookscope/internal/ranking"
	"hookscope/internal/textutil"
	"hookscope/internal/trends"
)

const (
	maxBodyBytes    = 1 << 20
	displayLeadSize = 200
	unknownCategory = "不明"
)

// ContextItem is a context window entry formatted for display.
type ContextItem struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Date        string `json:"date"`
	Likes       int    `json:"likes"`
	Lead        string `json:"lead"`
	URL         string `json:"url"`
	SubCategory string `json:"sub_category"`
}

// ContextWindow is the /rag/context/{id} payload.
type ContextWindow struct {
	RequestID    string        `json:"request_id"`
	CategoryID   int           `json:"category_id"`
	CategoryName string        `json:"category_name"`
	WindowDays   int           `json:"window_days"`
	TopK         int           `json:"top_k"`
	Count        int           `json:"count"`
	Items        []ContextItem `json:"items"`
}

func categoryName(id int) string {
	if name, ok := core.Categories[id]; ok {
		return name
	}
	return unknownCategory
}

// handleContextWindow handles GET /rag/context/{id}. Unlike the analysis
// pipeline, upstream failures are reported to the caller.
func (s *Server) handleContextWindow(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	categoryID := p.Path("id", "category_id", 1, maxID)
	windowDays := p.Query("window_days", analysis.DefaultWindowDays, 1, analysis.MaxWindowDays)
	topK := p.Query("top_k", analysis.DefaultTopK, 1, analysis.MaxTopK)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	releases, err := s.deps.Context.Candidates(r.Context(), categoryID, windowDays, topK)
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}

	items := make([]ContextItem, 0, len(releases))
	for _, rel := range releases {
		date := rel.CreatedAt
		if len(date) > 10 {
			date = date[:10]
		}
		items = append(items, ContextItem{
			Title:       rel.Title,
			Company:     rel.CompanyName,
			Date:        date,
			Likes:       rel.Like,
			Lead:        textutil.Truncate(rel.LeadParagraph, displayLeadSize),
			URL:         rel.URL,
			SubCategory: rel.SubCategoryName,
		})
	}

	s.respondJSON(w, http.StatusOK, ContextWindow{
		RequestID:    middleware.GetReqID(r.Context()),
		CategoryID:   categoryID,
		CategoryName: categoryName(categoryID),
		WindowDays:   windowDays,
		TopK:         topK,
		Count:        len(items),
		Items:        items,
	})
}

// CategoryRankingRequest is the body of POST /rag/categories/{id}. Every
// field is optional.
type CategoryRankingRequest struct {
	PerPage       *int   `json:"per_page"`
	Page          *int   `json:"page"`
	FromDate      string `json:"from_date"`
	ToDate        string `json:"to_date"`
	TopK          *int   `json:"top_k"`
	UseStatistics bool   `json:"use_statistics"`
	RankingMethod string `json:"ranking_method"`
}

// RankedRelease pairs a release with optional statistics.
type RankedRelease struct {
	Release    core.Release           `json:"release"`
	Statistics core.ReleaseStatistics `json:"statistics,omitempty"`
}

// CategoryRanking is the POST /rag/categories/{id} payload.
type CategoryRanking struct {
	RequestID     string          `json:"request_id"`
	CategoryID    int             `json:"category_id"`
	TotalCount    int             `json:"total_count"`
	FilteredCount int             `json:"filtered_count"`
	Releases      []RankedRelease `json:"releases"`
	Metadata      RankingMetadata `json:"metadata"`
}

// RankingMetadata describes how the ranking was produced.
type RankingMetadata struct {
	RankingMethod string         `json:"ranking_method"`
	Trends        trends.Summary `json:"trends"`
	Params        map[string]any `json:"params"`
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func (req CategoryRankingRequest) validate(p *params) (prtimes.ReleaseQuery, int) {
	check := func(field string, v, min, max int) {
		if v < min || v > max {
			p.fail(field, "must be between %d and %d", min, max)
		}
	}
	q := prtimes.ReleaseQuery{
		PerPage:  intOr(req.PerPage, 30),
		Page:     intOr(req.Page, 0),
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
	}
	topK := intOr(req.TopK, 10)
	check("per_page", q.PerPage, 1, 999)
	check("page", q.Page, 0, 99)
	check("top_k", topK, 1, 100)
	if q.FromDate != "" && !validDate(q.FromDate) {
		p.fail("from_date", "must be YYYY-MM-DD")
	}
	if q.ToDate != "" && !validDate(q.ToDate) {
		p.fail("to_date", "must be YYYY-MM-DD")
	}
	return q, topK
}

// handleCategoryRanking handles POST /rag/categories/{id}: retrieve one
// page, rank it, optionally attach statistics and summarize the page.
func (s *Server) handleCategoryRanking(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	categoryID := p.Path("id", "category_id", 1, maxID)

	var req CategoryRankingRequest
	if err := decodeBody(r, &req); err != nil {
		p.fail("body", "%v", err)
	}
	q, topK := req.validate(p)
	if err := p.Err(); err != nil {
		s.respondValidation(w, r, err)
		return
	}
	method := ranking.ByPopularity
	if req.RankingMethod != "" {
		method = ranking.ParseMethod(req.RankingMethod)
	}

	releases, err := s.deps.Upstream.CategoryReleases(r.Context(), categoryID, q)
	if err != nil {
		s.respondUpstreamError(w, r, err)
		return
	}
	s.log.Info("Retrieved category releases", "category_id", categoryID, "count", len(releases))

	ranked := ranking.Rank(releases, method, topK)

	out := make([]RankedRelease, len(ranked))
	if req.UseStatistics {
		enriched, err := s.withStatistics(r.Context(), ranked, true)
		if err != nil {
			s.respondUpstreamError(w, r, err)
			return
		}
		for i, e := range enriched {
			out[i] = RankedRelease{Release: e.Release, Statistics: e.Statistics}
		}
	} else {
		for i, rel := range ranked {
			out[i] = RankedRelease{Release: rel}
		}
	}

	applied := map[string]any{"per_page": q.PerPage, "page": q.Page}
	if q.FromDate != "" {
		applied["from_date"] = q.FromDate
	}
	if q.ToDate != "" {
		applied["to_date"] = q.ToDate
	}

	s.respondJSON(w, http.StatusOK, CategoryRanking{
		RequestID:     middleware.GetReqID(r.Context()),
		CategoryID:    categoryID,
		TotalCount:    len(releases),
		FilteredCount: len(out),
		Releases:      out,
		Metadata: RankingMetadata{
			RankingMethod: method.String(),
			Trends:        trends.Summarize(releases),
			Params:        applied,
		},
	})
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
