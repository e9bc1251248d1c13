package hooks

import (
	"google.golang.org/genai"
)

// ResponseSchema returns the structured-output schema handed to Gemini. It
// mirrors the evaluation payload: hook evaluations, paragraph improvements
// and an overall assessment.
func ResponseSchema() *genai.Schema {
	hookTypes := make([]string, len(definitions))
	for i, d := range definitions {
		hookTypes[i] = string(d.Type)
	}

	stringList := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: description,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"media_hook_evaluations": {
				Type:        genai.TypeArray,
				Description: "Exactly one evaluation for each of the nine media hooks",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"hook_type": {
							Type: genai.TypeString,
							Enum: hookTypes,
						},
						"hook_name_ja": {Type: genai.TypeString},
						"score": {
							Type:        genai.TypeInteger,
							Description: "Integer score from 1 (absent) to 5 (outstanding)",
						},
						"description":      {Type: genai.TypeString, Description: "Rationale for the score"},
						"improve_examples": stringList("Concrete rewrites that would raise the score"),
						"current_elements": stringList("Elements of the draft that already satisfy the hook"),
						"success_patterns": stringList("Patterns observed in the related high-performing releases"),
					},
					Required: []string{"hook_type", "hook_name_ja", "score", "description", "improve_examples", "current_elements"},
				},
			},
			"paragraph_improvements": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"where":             {Type: genai.TypeString, Description: "Which part of the draft, e.g. title, lead, paragraph 2"},
						"before":            {Type: genai.TypeString},
						"after":             {Type: genai.TypeString},
						"reference_example": {Type: genai.TypeString, Description: "Related release the rewrite borrows from, if any"},
					},
					Required: []string{"where", "before", "after"},
				},
			},
			"overall_assessment": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"total_score":          {Type: genai.TypeNumber, Description: "Aggregate score from 0 to 5"},
					"strengths":            stringList("Strongest hooks of the draft"),
					"weaknesses":           stringList("Weakest hooks of the draft"),
					"top_recommendations":  stringList("Highest impact changes, most important first"),
					"estimated_impact":     {Type: genai.TypeString},
					"benchmark_comparison": {Type: genai.TypeString, Description: "How the draft compares with the related releases"},
				},
				Required: []string{"total_score", "strengths", "weaknesses", "top_recommendations", "estimated_impact"},
			},
		},
		Required: []string{"media_hook_evaluations", "paragraph_improvements", "overall_assessment"},
	}
}
