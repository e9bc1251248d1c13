package trends

import (
	"testing"

	"hookscope/internal/core"
)

func TestSummarize(t *testing.T) {
	releases := []core.Release{
		{CompanyName: "A社", SubCategoryName: "新商品", Like: 10, CreatedAt: "2025-08-03 10:00:00"},
		{CompanyName: "B社", SubCategoryName: "新サービス", Like: 5, CreatedAt: "2025-08-01 09:00:00"},
		{CompanyName: "A社", SubCategoryName: "新商品", Like: 0, CreatedAt: "2025-08-10 12:00:00"},
		{CompanyName: "", SubCategoryName: "", Like: 2, CreatedAt: "2025-08-05 08:00:00"},
	}

	s := Summarize(releases)

	if s.TotalReleases != 4 || s.TotalLikes != 17 {
		t.Errorf("Unexpected totals: %+v", s)
	}
	if s.AvgLikes != 4.25 {
		t.Errorf("AvgLikes = %v, want 4.25", s.AvgLikes)
	}
	if s.TopSubcategories[0] != (Count{Name: "新商品", Count: 2}) {
		t.Errorf("Unexpected top subcategory: %+v", s.TopSubcategories)
	}
	if len(s.TopCompanies) != 3 || s.TopCompanies[2].Name != "不明" {
		t.Errorf("Unexpected companies: %+v", s.TopCompanies)
	}
	if s.DateRange.Oldest != "2025-08-01 09:00:00" || s.DateRange.Newest != "2025-08-10 12:00:00" {
		t.Errorf("Unexpected date range: %+v", s.DateRange)
	}
}

func TestSummarize_TopFive(t *testing.T) {
	var releases []core.Release
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		for j := 0; j <= i; j++ {
			releases = append(releases, core.Release{CompanyName: name, SubCategoryName: name})
		}
	}

	s := Summarize(releases)

	if len(s.TopCompanies) != 5 {
		t.Fatalf("Expected 5 companies, got %d", len(s.TopCompanies))
	}
	if s.TopCompanies[0].Name != "g" || s.TopCompanies[4].Name != "c" {
		t.Errorf("Unexpected ordering: %+v", s.TopCompanies)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalReleases != 0 || s.TopCompanies == nil || s.TopSubcategories == nil {
		t.Errorf("Unexpected empty summary: %+v", s)
	}
}
