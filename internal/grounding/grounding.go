// Package grounding selects high-performing releases from the same category
// and compacts them into briefs for the generation prompt.
package grounding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hookscope/internal/core"
	"hookscope/internal/fetch"
	"hookscope/internal/logger"
	"hookscope/internal/prtimes"
	"hookscope/internal/ranking"
	"hookscope/internal/textutil"
)

const (
	// DefaultOverfetchFactor multiplies topK to size the candidate pool.
	DefaultOverfetchFactor = 2
	// DefaultFetchCeiling caps the candidate pool.
	DefaultFetchCeiling = 100

	titleLimit = 140
	leadLimit  = 220
	bodyLimit  = 300
	dateLayout = "2006-01-02"
)

// ReleaseSource lists releases in a category. *prtimes.Client satisfies it.
type ReleaseSource interface {
	CategoryReleases(ctx context.Context, categoryID int, q prtimes.ReleaseQuery) ([]core.Release, error)
}

// Options tunes candidate selection.
type Options struct {
	OverfetchFactor int
	FetchCeiling    int
}

// Builder builds context windows.
type Builder struct {
	source ReleaseSource
	opts   Options
	now    func() time.Time
	log    *slog.Logger
}

// NewBuilder creates a Builder. Zero options take the defaults.
func NewBuilder(source ReleaseSource, opts Options) *Builder {
	if opts.OverfetchFactor <= 0 {
		opts.OverfetchFactor = DefaultOverfetchFactor
	}
	if opts.FetchCeiling <= 0 {
		opts.FetchCeiling = DefaultFetchCeiling
	}
	return &Builder{source: source, opts: opts, now: time.Now, log: logger.Get()}
}

// DateRange returns the YYYY-MM-DD bounds of a window ending now.
func (b *Builder) DateRange(windowDays int) (from, to string) {
	now := b.now()
	return now.AddDate(0, 0, -windowDays).Format(dateLayout), now.Format(dateLayout)
}

// Candidates fetches one page of releases in the window, ranks them by
// popularity and returns at most topK. Upstream errors are returned.
func (b *Builder) Candidates(ctx context.Context, categoryID, windowDays, topK int) ([]core.Release, error) {
	if topK <= 0 {
		return []core.Release{}, nil
	}

	perPage := topK * b.opts.OverfetchFactor
	if perPage > b.opts.FetchCeiling {
		perPage = b.opts.FetchCeiling
	}
	from, to := b.DateRange(windowDays)

	res := fetch.All(ctx, func(ctx context.Context, page, pageSize int) ([]core.Release, error) {
		return b.source.CategoryReleases(ctx, categoryID, prtimes.ReleaseQuery{
			PerPage:  pageSize,
			Page:     page,
			FromDate: from,
			ToDate:   to,
		})
	}, fetch.Options{PageSize: perPage, MaxPages: 1})
	if res.Err != nil {
		return nil, fmt.Errorf("fetch candidates for category %d: %w", categoryID, res.Err)
	}

	return ranking.Rank(res.Items, ranking.ByPopularity, topK), nil
}

// Build returns up to topK briefs. Any upstream failure yields an empty
// window and a warning; grounding never fails an analysis.
func (b *Builder) Build(ctx context.Context, categoryID, windowDays, topK int) []core.ContextBrief {
	releases, err := b.Candidates(ctx, categoryID, windowDays, topK)
	if err != nil {
		b.log.Warn("Context window unavailable, continuing without grounding",
			"category_id", categoryID,
			"window_days", windowDays,
			"auth_error", errors.Is(err, prtimes.ErrAuth),
			"error", err,
		)
		return []core.ContextBrief{}
	}

	briefs := make([]core.ContextBrief, 0, len(releases))
	for _, r := range releases {
		briefs = append(briefs, Compact(r))
	}
	b.log.Debug("Context window built", "category_id", categoryID, "briefs", len(briefs))
	return briefs
}

// Compact projects a release onto a size-bounded brief. The body is reduced
// to plain text before truncation.
func Compact(r core.Release) core.ContextBrief {
	date := r.CreatedAt
	if len(date) > 10 {
		date = date[:10]
	}
	return core.ContextBrief{
		Title:       textutil.Truncate(strings.TrimSpace(r.Title), titleLimit),
		Company:     r.CompanyName,
		Date:        date,
		SubCategory: r.SubCategoryName,
		Likes:       r.Like,
		Lead:        textutil.Truncate(textutil.HTMLToText(r.LeadParagraph), leadLimit),
		BodySnippet: textutil.Truncate(textutil.HTMLToText(r.Body), bodyLimit),
	}
}
