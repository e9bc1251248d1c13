// Package repair completes model output into the strict evaluation types.
// Whatever the model returned, the result always carries one evaluation per
// required hook, in canonical order.
package repair

import (
	"encoding/json"
	"math"
	"strings"

	"hookscope/internal/core"
	"hookscope/internal/hooks"
)

const (
	// PlaceholderScore is assigned to a hook whose evaluation was missing or malformed.
	PlaceholderScore = 2
	// UnconfiguredScore is assigned to every hook when no generation backend is configured.
	UnconfiguredScore = 3
	// DegradedTotalScore is the overall score reported by the static fallback.
	DegradedTotalScore = 2.5
)

// Fallback reasons reported on degraded responses.
const (
	ReasonNotConfigured    = "not_configured"
	ReasonGenerationFailed = "generation_failed"
)

const (
	placeholderDescription = "評価が不完全でした。再実行してください。"
	placeholderSuggestion  = "分析を再実行して、この観点の評価を取得してください。"
)

// Result is completed model output.
type Result struct {
	Hooks      []core.HookEvaluation
	Paragraphs []core.ParagraphImprovement
	Overall    core.OverallAssessment
	Repaired   []core.HookType // Hooks that were synthesized
}

// rawHook accepts any JSON score so that "4", 4.0 and 4.5 can be told apart.
type rawHook struct {
	HookType        core.HookType   `json:"hook_type"`
	HookNameJA      string          `json:"hook_name_ja"`
	Score           json.RawMessage `json:"score"`
	Description     string          `json:"description"`
	ImproveExamples []string        `json:"improve_examples"`
	CurrentElements []string        `json:"current_elements"`
	SuccessPatterns []string        `json:"success_patterns"`
}

// Output completes all three sections of raw model output.
func Output(raw *hooks.RawOutput, required []hooks.Definition) Result {
	if raw == nil {
		raw = &hooks.RawOutput{}
	}

	evals, repaired := completeHooks(raw.Hooks, required)
	return Result{
		Hooks:      evals,
		Paragraphs: Paragraphs(raw.Paragraphs),
		Overall:    Overall(raw.Overall, evals),
		Repaired:   repaired,
	}
}

// Hooks returns exactly one evaluation per required definition. Well-formed
// entries pass through unchanged; the rest become placeholders.
func Hooks(raw []json.RawMessage, required []hooks.Definition) []core.HookEvaluation {
	evals, _ := completeHooks(raw, required)
	return evals
}

func completeHooks(raw []json.RawMessage, required []hooks.Definition) ([]core.HookEvaluation, []core.HookType) {
	valid := make(map[core.HookType]core.HookEvaluation, len(raw))
	for _, entry := range raw {
		ev, ok := decodeHook(entry)
		if !ok {
			continue
		}
		// Later entries for the same hook replace earlier ones.
		valid[ev.HookType] = ev
	}

	out := make([]core.HookEvaluation, 0, len(required))
	var repaired []core.HookType
	for _, def := range required {
		if ev, ok := valid[def.Type]; ok {
			out = append(out, ev)
			continue
		}
		out = append(out, Placeholder(def, PlaceholderScore))
		repaired = append(repaired, def.Type)
	}
	return out, repaired
}

func decodeHook(entry json.RawMessage) (core.HookEvaluation, bool) {
	var rh rawHook
	if err := json.Unmarshal(entry, &rh); err != nil {
		return core.HookEvaluation{}, false
	}
	if !hooks.Known(rh.HookType) || strings.TrimSpace(rh.Description) == "" {
		return core.HookEvaluation{}, false
	}

	score, ok := integerScore(rh.Score)
	if !ok || score < 1 || score > 5 {
		return core.HookEvaluation{}, false
	}

	name := rh.HookNameJA
	if name == "" {
		def, _ := hooks.Lookup(rh.HookType)
		name = def.NameJA
	}

	return core.HookEvaluation{
		HookType:        rh.HookType,
		HookNameJA:      name,
		Score:           score,
		Description:     rh.Description,
		ImproveExamples: nonNil(rh.ImproveExamples),
		CurrentElements: nonNil(rh.CurrentElements),
		SuccessPatterns: nonNil(rh.SuccessPatterns),
	}, true
}

// integerScore accepts JSON numbers with no fractional part.
func integerScore(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Placeholder builds the synthesized evaluation for a hook.
func Placeholder(def hooks.Definition, score int) core.HookEvaluation {
	return core.HookEvaluation{
		HookType:        def.Type,
		HookNameJA:      def.NameJA,
		Score:           score,
		Description:     placeholderDescription,
		ImproveExamples: []string{placeholderSuggestion},
		CurrentElements: []string{},
		SuccessPatterns: []string{},
	}
}

// Paragraphs decodes paragraph improvements, dropping entries that do not
// decode or carry no rewrite.
func Paragraphs(raw []json.RawMessage) []core.ParagraphImprovement {
	out := make([]core.ParagraphImprovement, 0, len(raw))
	for _, entry := range raw {
		var p core.ParagraphImprovement
		if err := json.Unmarshal(entry, &p); err != nil {
			continue
		}
		if strings.TrimSpace(p.After) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Overall decodes the overall assessment. The total score is clamped into
// [0, 5]; when the section is missing or malformed the mean hook score is used.
func Overall(raw json.RawMessage, evals []core.HookEvaluation) core.OverallAssessment {
	var oa struct {
		TotalScore          *float64 `json:"total_score"`
		Strengths           []string `json:"strengths"`
		Weaknesses          []string `json:"weaknesses"`
		TopRecommendations  []string `json:"top_recommendations"`
		EstimatedImpact     string   `json:"estimated_impact"`
		BenchmarkComparison string   `json:"benchmark_comparison"`
	}

	if len(raw) == 0 || json.Unmarshal(raw, &oa) != nil {
		return core.OverallAssessment{
			TotalScore:         MeanScore(evals),
			Strengths:          []string{},
			Weaknesses:         []string{},
			TopRecommendations: []string{},
		}
	}

	total := MeanScore(evals)
	if oa.TotalScore != nil && !math.IsNaN(*oa.TotalScore) {
		total = clamp(*oa.TotalScore, 0, 5)
	}

	return core.OverallAssessment{
		TotalScore:          total,
		Strengths:           nonNil(oa.Strengths),
		Weaknesses:          nonNil(oa.Weaknesses),
		TopRecommendations:  nonNil(oa.TopRecommendations),
		EstimatedImpact:     oa.EstimatedImpact,
		BenchmarkComparison: oa.BenchmarkComparison,
	}
}

// MeanScore returns the average hook score rounded to one decimal place.
func MeanScore(evals []core.HookEvaluation) float64 {
	if len(evals) == 0 {
		return 0
	}
	sum := 0
	for _, ev := range evals {
		sum += ev.Score
	}
	return math.Round(float64(sum)/float64(len(evals))*10) / 10
}

// Fallback builds a complete result without any model output. reason is one
// of ReasonNotConfigured or ReasonGenerationFailed.
func Fallback(reason string, required []hooks.Definition) Result {
	score := PlaceholderScore
	impact := "AI評価を実行できなかったため、影響度は推定できません。"
	if reason == ReasonNotConfigured {
		score = UnconfiguredScore
		impact = "AI評価が設定されていないため、静的な評価を返しています。"
	}

	evals := make([]core.HookEvaluation, 0, len(required))
	repaired := make([]core.HookType, 0, len(required))
	for _, def := range required {
		evals = append(evals, Placeholder(def, score))
		repaired = append(repaired, def.Type)
	}

	return Result{
		Hooks:      evals,
		Paragraphs: []core.ParagraphImprovement{},
		Overall: core.OverallAssessment{
			TotalScore:         DegradedTotalScore,
			Strengths:          []string{},
			Weaknesses:         []string{},
			TopRecommendations: []string{"AI評価を有効にして再実行してください。"},
			EstimatedImpact:    impact,
			Degraded:           true,
		},
		Repaired: repaired,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
