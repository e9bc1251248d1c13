// Package ranking orders press releases by a single signal.
package ranking

import (
	"sort"
	"strings"

	"hookscope/internal/core"
)

// Method selects the ordering applied by Rank.
type Method int

const (
	// InsertionOrder keeps the order in which releases were fetched.
	InsertionOrder Method = iota
	// ByPopularity orders by like count, highest first.
	ByPopularity
	// ByRecency orders by creation timestamp, newest first.
	ByRecency
)

// String returns the wire name of the method.
func (m Method) String() string {
	switch m {
	case ByPopularity:
		return "like"
	case ByRecency:
		return "recent"
	default:
		return "none"
	}
}

// ParseMethod maps a request value to a Method. Unknown values fall back to
// InsertionOrder rather than failing.
func ParseMethod(s string) Method {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "likes", "popularity", "by_popularity":
		return ByPopularity
	case "recent", "recency", "by_recency":
		return ByRecency
	default:
		return InsertionOrder
	}
}

// Rank returns at most topK releases ordered by m. Ties keep their input
// order. The input slice is not modified.
func Rank(releases []core.Release, m Method, topK int) []core.Release {
	if topK <= 0 || len(releases) == 0 {
		return []core.Release{}
	}

	ranked := make([]core.Release, len(releases))
	copy(ranked, releases)

	switch m {
	case ByPopularity:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Like > ranked[j].Like
		})
	case ByRecency:
		// created_at is ISO8601, so string order is time order.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CreatedAt > ranked[j].CreatedAt
		})
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
