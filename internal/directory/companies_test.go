package directory

import (
	"context"
	"errors"
	"testing"

	"hookscope/internal/core"
	"hookscope/internal/fetch"
)

type fakeCompanies struct {
	pages  [][]core.Company
	failAt int
	calls  []int
}

func (f *fakeCompanies) Companies(ctx context.Context, perPage, page int) ([]core.Company, error) {
	f.calls = append(f.calls, page)
	if page == f.failAt {
		return nil, errors.New("boom")
	}
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

func companies(n int, industry string) []core.Company {
	out := make([]core.Company, n)
	for i := range out {
		out[i] = core.Company{CompanyID: int64(i), Industry: industry}
	}
	return out
}

func TestCompanyLoader(t *testing.T) {
	src := &fakeCompanies{pages: [][]core.Company{companies(2, "IT・通信"), companies(1, "製造業")}, failAt: -1}

	got, err := CompanyLoader(src, fetch.Options{PageSize: 2, MaxPages: 20})(context.Background())
	if err != nil {
		t.Fatalf("Loader failed: %v", err)
	}
	if len(got) != 3 || len(src.calls) != 2 {
		t.Errorf("Expected 3 companies over 2 pages, got %d over %v", len(got), src.calls)
	}
}

func TestCompanyLoader_FirstPageFailure(t *testing.T) {
	src := &fakeCompanies{failAt: 0}

	if _, err := CompanyLoader(src, fetch.Options{PageSize: 2})(context.Background()); err == nil {
		t.Error("Expected error when the first page fails")
	}
}

func TestCompanyLoader_LaterFailureKeepsPartial(t *testing.T) {
	src := &fakeCompanies{pages: [][]core.Company{companies(2, "x"), companies(2, "x")}, failAt: 1}

	got, err := CompanyLoader(src, fetch.Options{PageSize: 2})(context.Background())
	if err != nil {
		t.Fatalf("Later page failure should not be an error, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected the first page only, got %d", len(got))
	}
}

func TestFilterByIndustry(t *testing.T) {
	all := append(companies(3, "サービス業"), companies(2, "製造業")...)

	if got := FilterByIndustry(all, "製造業"); len(got) != 2 {
		t.Errorf("Expected 2 manufacturers, got %d", len(got))
	}
	if got := FilterByIndustry(all, "鉱業"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", got)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		perPage, page int
		want          int
	}{
		{2, 0, 2},
		{2, 2, 1},
		{2, 3, 0},
		{0, 0, 0},
		{10, -1, 0},
	}
	for _, tt := range tests {
		if got := Paginate(items, tt.perPage, tt.page); len(got) != tt.want {
			t.Errorf("Paginate(%d, %d) returned %d items, want %d", tt.perPage, tt.page, len(got), tt.want)
		}
	}
}
