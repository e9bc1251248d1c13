// Package evaluate builds the generation request for a press release draft
// and returns the model's structured answer.
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hookscope/internal/core"
	"hookscope/internal/hooks"
	"hookscope/internal/llm"
	"hookscope/internal/textutil"
)

// DefaultPersona is used when the draft names no target audience.
const DefaultPersona = "指定なし"

// maxBodyRunes bounds the draft body included in the prompt.
const maxBodyRunes = 12000

// Draft is the press release under evaluation.
type Draft struct {
	Title    string
	Body     string // Markdown or HTML
	Persona  string
	ImageURL string
}

// Grounding is the related-release context given to the model.
type Grounding struct {
	CategoryID   *int
	CategoryName string
	WindowDays   int
	TopK         int
	Items        []core.ContextBrief
}

// GenerationError reports a failed generation attempt.
type GenerationError struct {
	Stage string // "generate" or "parse"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Invoker sends evaluation requests to a generation backend.
type Invoker struct {
	gen llm.Generator
}

// NewInvoker creates an Invoker backed by gen.
func NewInvoker(gen llm.Generator) *Invoker {
	return &Invoker{gen: gen}
}

// ModelName returns the backend model identifier.
func (inv *Invoker) ModelName() string {
	return inv.gen.ModelName()
}

// Evaluate makes exactly one generation call and parses its output. It never
// returns unparsed text; failures come back as *GenerationError.
func (inv *Invoker) Evaluate(ctx context.Context, draft Draft, grounding Grounding, required []hooks.Definition) (*hooks.RawOutput, error) {
	prompt, err := BuildUserPrompt(draft, grounding, required)
	if err != nil {
		return nil, &GenerationError{Stage: "prompt", Err: err}
	}

	text, err := inv.gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		SystemInstruction: SystemInstruction(required),
		ResponseSchema:    hooks.ResponseSchema(),
	})
	if err != nil {
		return nil, &GenerationError{Stage: "generate", Err: err}
	}

	raw, err := hooks.Parse(text)
	if err != nil {
		return nil, &GenerationError{Stage: "parse", Err: err}
	}
	return raw, nil
}

// SystemInstruction establishes the evaluator persona and procedure.
func SystemInstruction(required []hooks.Definition) string {
	var sb strings.Builder

	sb.WriteString("You are an experienced Japanese press release editor. ")
	sb.WriteString("Evaluate the given press release draft for the media hooks that make journalists pick up a story.\n\n")

	sb.WriteString("Follow these steps:\n")
	sb.WriteString("1. Study related_context.items. They are high-performing releases from the same category; find what made them attractive to the media.\n")
	sb.WriteString("2. Compare the input article against those releases.\n")
	sb.WriteString("3. Identify missing elements and gaps.\n")
	sb.WriteString("4. Propose concrete, actionable improvements grounded in the patterns you found.\n\n")

	sb.WriteString("What to look for in the related releases:\n")
	sb.WriteString("- Common patterns among the most liked releases\n")
	sb.WriteString("- How titles are phrased, how numbers are used, which keywords are chosen\n")
	sb.WriteString("- Industry trends and topical angles\n\n")

	sb.WriteString(fmt.Sprintf("Evaluate ALL %d media hooks below, exactly once each:\n", len(required)))
	for _, d := range required {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", d.Type, d.NameJA, d.Focus))
	}

	sb.WriteString("\nScoring rules:\n")
	sb.WriteString("- score is an integer from 1 (absent) to 5 (outstanding)\n")
	sb.WriteString("- description explains the score, including the comparison with related releases when available\n")
	sb.WriteString("- overall_assessment.total_score is between 0 and 5\n")
	sb.WriteString("- Write every free-text field in Japanese\n")
	sb.WriteString("- Respond with a single JSON object and nothing else\n")

	return sb.String()
}

type promptArticle struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Persona  string  `json:"persona"`
	ImageURL *string `json:"image_url"`
}

type promptContext struct {
	CategoryID          *int                `json:"category_id"`
	CategoryName        string              `json:"category_name,omitempty"`
	WindowDays          int                 `json:"window_days"`
	TopK                int                 `json:"top_k"`
	Items               []core.ContextBrief `json:"items"`
	AnalysisInstruction string              `json:"analysis_instruction"`
}

type promptPayload struct {
	InputArticle        promptArticle      `json:"input_article"`
	RelatedContext      promptContext      `json:"related_context"`
	RequiredEvaluations []hooks.Definition `json:"required_evaluations"`
	OutputSchemaHint    map[string]any     `json:"output_schema_hint"`
}

// BuildUserPrompt serializes the draft, the grounding and the required hooks.
func BuildUserPrompt(draft Draft, grounding Grounding, required []hooks.Definition) (string, error) {
	persona := strings.TrimSpace(draft.Persona)
	if persona == "" {
		persona = DefaultPersona
	}

	var imageURL *string
	if draft.ImageURL != "" {
		imageURL = &draft.ImageURL
	}

	items := grounding.Items
	if items == nil {
		items = []core.ContextBrief{}
	}

	payload := promptPayload{
		InputArticle: promptArticle{
			Title:    draft.Title,
			Body:     textutil.Truncate(textutil.DraftToText(draft.Body), maxBodyRunes),
			Persona:  persona,
			ImageURL: imageURL,
		},
		RelatedContext: promptContext{
			CategoryID:          grounding.CategoryID,
			CategoryName:        grounding.CategoryName,
			WindowDays:          grounding.WindowDays,
			TopK:                grounding.TopK,
			Items:               items,
			AnalysisInstruction: "These releases performed well in the same category. Analyze their success patterns and use them to improve the input article.",
		},
		RequiredEvaluations: required,
		OutputSchemaHint:    schemaHint(required),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt payload: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Run the following analysis:\n")
	sb.WriteString("1. Analyze the success patterns in related_context.items\n")
	sb.WriteString("2. Compare the input article with them\n")
	sb.WriteString("3. Evaluate every required media hook\n")
	sb.WriteString("4. Suggest concrete improvements learned from the related releases\n\n")
	if len(items) == 0 {
		sb.WriteString("No related releases are available; evaluate the article on its own merits and leave success_patterns empty.\n\n")
	}
	sb.WriteString("Data:\n")
	sb.Write(data)
	return sb.String(), nil
}

func schemaHint(required []hooks.Definition) map[string]any {
	evals := make([]map[string]any, 0, len(required))
	for _, d := range required {
		evals = append(evals, map[string]any{
			"hook_type":        d.Type,
			"hook_name_ja":     d.NameJA,
			"score":            3,
			"description":      "成功事例との比較を含めた評価理由",
			"improve_examples": []string{"成功事例のように具体的な数値を含める"},
			"current_elements": []string{"現状で満たしている要素"},
			"success_patterns": []string{"参考にした成功事例のパターン"},
		})
	}

	return map[string]any{
		"media_hook_evaluations": evals,
		"paragraph_improvements": []map[string]string{{
			"where":             "改善箇所",
			"before":            "元文",
			"after":             "改善案",
			"reference_example": "参考にした成功事例のタイトル",
		}},
		"overall_assessment": map[string]any{
			"total_score":          0.0,
			"strengths":            []string{"強み"},
			"weaknesses":           []string{"弱み"},
			"top_recommendations":  []string{"具体的な推奨事項"},
			"estimated_impact":     "推定インパクト",
			"benchmark_comparison": "成功事例との比較結果",
		},
	}
}
