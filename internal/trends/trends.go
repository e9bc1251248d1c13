// Package trends summarizes a set of releases from one category.
package trends

import (
	"math"
	"sort"

	"hookscope/internal/core"
)

const (
	topN    = 5
	unknown = "不明"
)

// Count is a name with its number of occurrences.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateRange holds the oldest and newest created_at values.
type DateRange struct {
	Oldest string `json:"oldest"`
	Newest string `json:"newest"`
}

// Summary describes a category's recent activity.
type Summary struct {
	TotalReleases    int       `json:"total_releases"`
	TotalLikes       int       `json:"total_likes"`
	AvgLikes         float64   `json:"avg_likes"`
	TopSubcategories []Count   `json:"top_subcategories"`
	TopCompanies     []Count   `json:"top_companies"`
	DateRange        DateRange `json:"date_range"`
}

// Summarize aggregates releases. An empty input yields a zero Summary with
// empty lists.
func Summarize(releases []core.Release) Summary {
	s := Summary{TopSubcategories: []Count{}, TopCompanies: []Count{}}
	if len(releases) == 0 {
		return s
	}

	subcategories := make(map[string]int)
	companies := make(map[string]int)
	var subOrder, companyOrder []string

	for i, r := range releases {
		sub := nonEmpty(r.SubCategoryName)
		if subcategories[sub] == 0 {
			subOrder = append(subOrder, sub)
		}
		subcategories[sub]++

		company := nonEmpty(r.CompanyName)
		if companies[company] == 0 {
			companyOrder = append(companyOrder, company)
		}
		companies[company]++

		s.TotalLikes += r.Like

		if i == 0 || r.CreatedAt < s.DateRange.Oldest {
			s.DateRange.Oldest = r.CreatedAt
		}
		if r.CreatedAt > s.DateRange.Newest {
			s.DateRange.Newest = r.CreatedAt
		}
	}

	s.TotalReleases = len(releases)
	s.AvgLikes = math.Round(float64(s.TotalLikes)/float64(len(releases))*100) / 100
	s.TopSubcategories = mostCommon(subcategories, subOrder, topN)
	s.TopCompanies = mostCommon(companies, companyOrder, topN)
	return s
}

// mostCommon orders by count, breaking ties by first appearance.
func mostCommon(counts map[string]int, order []string, n int) []Count {
	out := make([]Count, 0, len(order))
	for _, name := range order {
		out = append(out, Count{Name: name, Count: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func nonEmpty(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
