package directory

import (
	"context"
	"time"

	"hookscope/internal/core"
	"hookscope/internal/fetch"
	"hookscope/internal/logger"
)

// CompanySource lists one page of companies. *prtimes.Client satisfies it.
type CompanySource interface {
	Companies(ctx context.Context, perPage, page int) ([]core.Company, error)
}

// CompanyLoader pages through the whole company directory. A failure on
// the first page is an error; later failures keep what was gathered.
func CompanyLoader(src CompanySource, opts fetch.Options) Loader[core.Company] {
	return func(ctx context.Context) ([]core.Company, error) {
		res := fetch.All(ctx, func(ctx context.Context, page, pageSize int) ([]core.Company, error) {
			return src.Companies(ctx, pageSize, page)
		}, opts)
		if res.Err != nil {
			if res.Pages == 0 {
				return nil, res.Err
			}
			logger.Warn("Company directory truncated", "pages", res.Pages, "companies", len(res.Items), "error", res.Err)
		}
		if res.HitLimit {
			logger.Warn("Company directory hit the page limit", "pages", res.Pages, "companies", len(res.Items))
		}
		if res.Items == nil {
			res.Items = []core.Company{}
		}
		return res.Items, nil
	}
}

// NewCompanyCache wires a company cache.
func NewCompanyCache(src CompanySource, opts fetch.Options, ttl time.Duration) *Cache[core.Company] {
	return New(CompanyLoader(src, opts), ttl)
}

// FilterByIndustry returns the companies whose industry equals name.
func FilterByIndustry(companies []core.Company, name string) []core.Company {
	out := make([]core.Company, 0)
	for _, c := range companies {
		if c.Industry == name {
			out = append(out, c)
		}
	}
	return out
}

// Paginate returns the page-th slice of size perPage, clamping out-of-range pages to empty.
func Paginate[T any](items []T, perPage, page int) []T {
	if perPage <= 0 || page < 0 {
		return []T{}
	}
	start := perPage * page
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
