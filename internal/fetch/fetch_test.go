package fetch

import (
	"context"
	"errors"
	"testing"
)

// pager serves fixed page sizes and records which pages were requested.
type pager struct {
	sizes     []int
	failAt    int
	requested []int
}

func (p *pager) page(ctx context.Context, page, pageSize int) ([]int, error) {
	p.requested = append(p.requested, page)
	if p.failAt >= 0 && page == p.failAt {
		return nil, errors.New("boom")
	}
	if page >= len(p.sizes) {
		return nil, nil
	}
	items := make([]int, p.sizes[page])
	for i := range items {
		items[i] = page*pageSize + i
	}
	return items, nil
}

func TestAll_StopsOnShortPage(t *testing.T) {
	p := &pager{sizes: []int{100, 100, 37}, failAt: -1}

	res := All(context.Background(), p.page, Options{PageSize: 100, MaxPages: 20})

	if res.Err != nil {
		t.Fatalf("Unexpected error: %v", res.Err)
	}
	if len(res.Items) != 237 {
		t.Errorf("Expected 237 items, got %d", len(res.Items))
	}
	if res.Pages != 3 || len(p.requested) != 3 {
		t.Errorf("Expected 3 pages requested, got %d (%v)", res.Pages, p.requested)
	}
	if res.HitLimit {
		t.Error("HitLimit should be false when a short page ends pagination")
	}
}

func TestAll_StopsOnEmptyPage(t *testing.T) {
	p := &pager{sizes: []int{10, 0}, failAt: -1}

	res := All(context.Background(), p.page, Options{PageSize: 10, MaxPages: 5})

	if len(res.Items) != 10 || res.Pages != 1 {
		t.Errorf("Expected 10 items over 1 page, got %d over %d", len(res.Items), res.Pages)
	}
	if len(p.requested) != 2 {
		t.Errorf("Expected the empty page to be requested, got %v", p.requested)
	}
}

func TestAll_PageLimit(t *testing.T) {
	p := &pager{sizes: []int{5, 5, 5, 5, 5, 5}, failAt: -1}

	res := All(context.Background(), p.page, Options{PageSize: 5, MaxPages: 3})

	if len(res.Items) != 15 {
		t.Errorf("Expected 15 items, got %d", len(res.Items))
	}
	if !res.HitLimit {
		t.Error("Expected HitLimit when the page limit is reached")
	}
	if len(p.requested) != 3 {
		t.Errorf("Expected exactly 3 requests, got %v", p.requested)
	}
}

func TestAll_ErrorKeepsPartialItems(t *testing.T) {
	p := &pager{sizes: []int{4, 4, 4}, failAt: 1}

	res := All(context.Background(), p.page, Options{PageSize: 4, MaxPages: 10})

	if res.Err == nil {
		t.Fatal("Expected an error from the failing page")
	}
	if len(res.Items) != 4 || res.Pages != 1 {
		t.Errorf("Expected items from the first page only, got %d items over %d pages", len(res.Items), res.Pages)
	}
	if len(p.requested) != 2 {
		t.Errorf("Failed page should not be retried, requests: %v", p.requested)
	}
}

func TestAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &pager{sizes: []int{1}, failAt: -1}

	res := All(ctx, p.page, Options{})

	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", res.Err)
	}
	if len(p.requested) != 0 {
		t.Errorf("No page should be requested after cancellation, got %v", p.requested)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.PageSize != DefaultPageSize || o.MaxPages != DefaultMaxPages {
		t.Errorf("Unexpected defaults: %+v", o)
	}
}
