// Package fetch accumulates items from page-oriented upstream listings.
package fetch

import (
	"context"
	"fmt"
)

const (
	// DefaultPageSize is the number of items requested per page.
	DefaultPageSize = 100
	// DefaultMaxPages bounds the number of pages requested in one call.
	DefaultMaxPages = 20
)

// PageFunc requests a single page. Pages are numbered from 0.
type PageFunc[T any] func(ctx context.Context, page, pageSize int) ([]T, error)

// Options controls pagination.
type Options struct {
	PageSize int // Items per page, DefaultPageSize when <= 0
	MaxPages int // Page limit, DefaultMaxPages when <= 0
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	return o
}

// Result is the outcome of a paginated fetch. Items holds everything gathered
// before pagination stopped, even when Err is set.
type Result[T any] struct {
	Items    []T
	Pages    int   // Pages that returned successfully
	HitLimit bool  // True when MaxPages was reached with the last page still full
	Err      error // First page error, if any
}

// All requests pages in order until a page comes back short or empty, a page
// fails, or the page limit is reached. A failed page is not retried.
func All[T any](ctx context.Context, fn PageFunc[T], opts Options) Result[T] {
	opts = opts.withDefaults()
	var res Result[T]

	for page := 0; page < opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("page %d: %w", page, err)
			return res
		}

		items, err := fn(ctx, page, opts.PageSize)
		if err != nil {
			res.Err = fmt.Errorf("page %d: %w", page, err)
			return res
		}
		if len(items) == 0 {
			return res
		}

		res.Items = append(res.Items, items...)
		res.Pages++

		if len(items) < opts.PageSize {
			return res
		}
	}

	res.HitLimit = true
	return res
}
