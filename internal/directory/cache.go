// Package directory keeps a read-through, time-bounded snapshot of the
// company directory.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"hookscope/internal/logger"
)

// DefaultTTL is how long a snapshot is served before a refresh.
const DefaultTTL = 5 * time.Minute

// DefaultLoadTimeout bounds one reload, independent of the callers waiting on it.
const DefaultLoadTimeout = 2 * time.Minute

// Loader produces a fresh copy of the cached data.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Snapshot is an immutable view of the cached data.
type Snapshot[T any] struct {
	Data      []T
	FetchedAt time.Time
}

// Stats describes the cache for diagnostics.
type Stats struct {
	Cached    bool      `json:"cached"`
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	AgeSec    float64   `json:"age_seconds"`
	TTLSec    float64   `json:"ttl_seconds"`
	Refreshes int64     `json:"refreshes"`
	Failures  int64     `json:"failures"`
}

// Cache serves a snapshot and replaces it whole when it expires. Readers
// never see a partially refreshed snapshot.
type Cache[T any] struct {
	load        Loader[T]
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	log         *slog.Logger
	group       singleflight.Group

	snap      atomic.Pointer[Snapshot[T]]
	refreshes atomic.Int64
	failures  atomic.Int64
}

// New creates a cache. A non-positive ttl uses DefaultTTL.
func New[T any](load Loader[T], ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{load: load, ttl: ttl, loadTimeout: DefaultLoadTimeout, now: time.Now, log: logger.Get()}
}

// GetOrRefresh returns the cached data, reloading it first when the snapshot
// is missing or older than the TTL. refreshed reports whether this call's
// data came from a load. When a reload fails and an older snapshot exists,
// the stale data is returned without an error.
//
// Concurrent callers share one reload. The reload keeps the first caller's
// values but not its cancellation, so a caller that gives up only abandons
// its own wait.
func (c *Cache[T]) GetOrRefresh(ctx context.Context) (items []T, refreshed bool, err error) {
	current := c.snap.Load()
	if current != nil && c.now().Sub(current.FetchedAt) < c.ttl {
		return current.Data, false, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (any, error) {
		// Another caller may have refreshed while we waited.
		if s := c.snap.Load(); s != nil && s != current && c.now().Sub(s.FetchedAt) < c.ttl {
			return s, nil
		}
		lctx, cancel := context.WithTimeout(loadCtx, c.loadTimeout)
		defer cancel()
		data, err := c.load(lctx)
		if err != nil {
			c.failures.Add(1)
			return nil, err
		}
		s := &Snapshot[T]{Data: data, FetchedAt: c.now()}
		c.snap.Store(s)
		c.refreshes.Add(1)
		return s, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, false, fmt.Errorf("load directory: %w", ctx.Err())
	}
	v, err := res.Val, res.Err
	if err != nil {
		if current != nil {
			c.log.Warn("Directory refresh failed, serving stale snapshot",
				"age", c.now().Sub(current.FetchedAt).String(), "error", err)
			return current.Data, false, nil
		}
		return nil, false, fmt.Errorf("load directory: %w", err)
	}

	return v.(*Snapshot[T]).Data, true, nil
}

// Clear drops the snapshot so the next read reloads.
func (c *Cache[T]) Clear() {
	c.snap.Store(nil)
}

// Stats reports the current cache state.
func (c *Cache[T]) Stats() Stats {
	st := Stats{
		TTLSec:    c.ttl.Seconds(),
		Refreshes: c.refreshes.Load(),
		Failures:  c.failures.Load(),
	}
	if s := c.snap.Load(); s != nil {
		st.Cached = true
		st.Count = len(s.Data)
		st.FetchedAt = s.FetchedAt
		st.AgeSec = c.now().Sub(s.FetchedAt).Seconds()
	}
	return st
}
