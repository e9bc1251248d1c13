// Package hooks defines the closed set of media hook dimensions a press
// release is evaluated against, and the contract model output must satisfy.
package hooks

import (
	"fmt"
	"sort"
	"strings"

	"hookscope/internal/core"
)

// The nine media hook dimensions.
const (
	TrendingSeasonal  core.HookType = "trending_seasonal"
	Unexpectedness    core.HookType = "unexpectedness"
	ParadoxConflict   core.HookType = "paradox_conflict"
	Regional          core.HookType = "regional"
	Topicality        core.HookType = "topicality"
	SocialPublic      core.HookType = "social_public"
	NoveltyUniqueness core.HookType = "novelty_uniqueness"
	SuperlativeRarity core.HookType = "superlative_rarity"
	VisualImpact      core.HookType = "visual_impact"
)

// Definition describes one hook dimension.
type Definition struct {
	Type   core.HookType `json:"hook_type"`
	NameJA string        `json:"hook_name_ja"`
	Focus  string        `json:"-"` // What an editor looks for, used in prompts
}

var definitions = []Definition{
	{TrendingSeasonal, "トレンド・季節性", "ties to current trends, seasons, anniversaries or calendar events"},
	{Unexpectedness, "意外性", "surprising facts, unusual combinations, counter-intuitive results"},
	{ParadoxConflict, "パラドックス・対立構造", "tension, contradiction or a conflict that the news resolves"},
	{Regional, "地域性", "connection to a specific region, local community or place"},
	{Topicality, "話題性", "buzz potential, celebrity or social media angle"},
	{SocialPublic, "社会性・公共性", "relevance to social issues and the public interest"},
	{NoveltyUniqueness, "新規性・独自性", "first-of-its-kind, original approach or proprietary technology"},
	{SuperlativeRarity, "最上級・希少性", "No.1, largest, limited quantity or rare claims backed by facts"},
	{VisualImpact, "ビジュアルインパクト", "strength of imagery, photos and visual storytelling"},
}

var byType = func() map[core.HookType]Definition {
	m := make(map[core.HookType]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Type] = d
	}
	return m
}()

// Definitions returns the nine hook definitions in canonical order. The
// returned slice is a copy.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for a hook type.
func Lookup(t core.HookType) (Definition, bool) {
	d, ok := byType[t]
	return d, ok
}

// Known reports whether t is one of the nine hook types.
func Known(t core.HookType) bool {
	_, ok := byType[t]
	return ok
}

// IncompleteError describes how a set of evaluations deviates from the
// required nine dimensions.
type IncompleteError struct {
	Missing    []core.HookType
	Duplicates []core.HookType
	Unknown    []core.HookType
}

func (e *IncompleteError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinTypes(e.Missing))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, "duplicated "+joinTypes(e.Duplicates))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown "+joinTypes(e.Unknown))
	}
	return fmt.Sprintf("incomplete hook evaluations: %s", strings.Join(parts, "; "))
}

// Check validates that evals holds exactly one evaluation per hook type. It
// returns nil or an *IncompleteError.
func Check(evals []core.HookEvaluation) error {
	seen := make(map[core.HookType]int, len(evals))
	var unknown []core.HookType
	for _, ev := range evals {
		if !Known(ev.HookType) {
			unknown = append(unknown, ev.HookType)
			continue
		}
		seen[ev.HookType]++
	}

	var missing, dups []core.HookType
	for _, d := range definitions {
		switch n := seen[d.Type]; {
		case n == 0:
			missing = append(missing, d.Type)
		case n > 1:
			dups = append(dups, d.Type)
		}
	}

	if len(missing) == 0 && len(dups) == 0 && len(unknown) == 0 {
		return nil
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return &IncompleteError{Missing: missing, Duplicates: dups, Unknown: unknown}
}

// IsComplete reports whether evals covers all nine hook types exactly once.
func IsComplete(evals []core.HookEvaluation) bool {
	return Check(evals) == nil
}

func joinTypes(types []core.HookType) string {
	s := make([]string, len(types))
	for i, t := range types {
		s[i] = string(t)
	}
	return strings.Join(s, ", ")
}
