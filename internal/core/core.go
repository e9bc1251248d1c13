package core

import (
	"sort"
	"time"
)

// Release represents a single press release as returned by the content API.
type Release struct {
	CompanyName      string `json:"company_name"`       // Name of the issuing company
	CompanyID        int64  `json:"company_id"`         // Owning company identifier
	ReleaseID        int64  `json:"release_id"`         // Source item identifier
	Title            string `json:"title"`              // Release title
	Subtitle         string `json:"subtitle,omitempty"` // Optional subtitle
	URL              string `json:"url"`                // Public URL of the release
	LeadParagraph    string `json:"lead_paragraph"`     // Lead text
	Body             string `json:"body"`               // Full body (HTML)
	MainImage        string `json:"main_image,omitempty"`
	MainCategoryID   int    `json:"main_category_id"`
	MainCategoryName string `json:"main_category_name"`
	SubCategoryID    int    `json:"sub_category_id"`
	SubCategoryName  string `json:"sub_category_name"`
	ReleaseType      string `json:"release_type,omitempty"`
	CreatedAt        string `json:"created_at"` // ISO8601 creation timestamp
	Like             int    `json:"like"`       // Popularity count
}

// Company represents a company registered with the content API.
type Company struct {
	CompanyID         int64  `json:"company_id"`
	CompanyName       string `json:"company_name"`
	PresidentName     string `json:"president_name"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	Description       string `json:"description"`
	Industry          string `json:"industry"`
	IPOType           string `json:"ipo_type"`
	Capital           int64  `json:"capital"`
	FoundationDate    string `json:"foundation_date"`
	URL               string `json:"url"`
	TwitterScreenName string `json:"twitter_screen_name"`
}

// ReleaseStatistics is the statistics payload for a single release. The upstream
// shape is not fixed, so it is kept as a generic JSON object.
type ReleaseStatistics map[string]any

// ContextBrief is a size-bounded projection of a Release used inside generation prompts.
type ContextBrief struct {
	Title       string `json:"title"`        // Truncated title
	Company     string `json:"company"`      // Source company name
	Date        string `json:"date"`         // YYYY-MM-DD portion of created_at
	SubCategory string `json:"sub_category"` // Sub-category name
	Likes       int    `json:"likes"`        // Popularity count
	Lead        string `json:"lead"`         // Truncated lead text
	BodySnippet string `json:"body_snippet"` // Truncated plain-text body
}

// HookType identifies one of the nine media hook dimensions.
type HookType string

// HookEvaluation is the evaluation of a press release against one media hook.
type HookEvaluation struct {
	HookType        HookType `json:"hook_type"`
	HookNameJA      string   `json:"hook_name_ja"`
	Score           int      `json:"score"`       // 1..5
	Description     string   `json:"description"` // Rationale for the score
	ImproveExamples []string `json:"improve_examples"`
	CurrentElements []string `json:"current_elements"`
	SuccessPatterns []string `json:"success_patterns"` // Patterns borrowed from context releases
}

// ParagraphImprovement is a rewrite suggestion for part of the press release.
type ParagraphImprovement struct {
	Where            string `json:"where"`
	Before           string `json:"before"`
	After            string `json:"after"`
	ReferenceExample string `json:"reference_example,omitempty"`
}

// OverallAssessment summarizes the evaluation across all hooks.
type OverallAssessment struct {
	TotalScore          float64  `json:"total_score"` // 0..5
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	TopRecommendations  []string `json:"top_recommendations"`
	EstimatedImpact     string   `json:"estimated_impact"`
	BenchmarkComparison string   `json:"benchmark_comparison,omitempty"`
	Degraded            bool     `json:"degraded"` // True when no real evaluation took place
}

// ImageData references the lead image of a press release draft.
type ImageData struct {
	URL string `json:"url,omitempty"`
}

// DraftMetadata carries audience information for a draft.
type DraftMetadata struct {
	Persona string `json:"persona"`
}

// AnalysisRequest is the inbound request to evaluate a press release draft.
type AnalysisRequest struct {
	Title             string         `json:"title"`
	ContentMarkdown   string         `json:"content_markdown"` // Markdown or HTML body
	TopImage          *ImageData     `json:"top_image,omitempty"`
	Metadata          *DraftMetadata `json:"metadata,omitempty"`
	ContextCategoryID *int           `json:"context_category_id,omitempty"`
	ContextWindowDays int            `json:"context_window_days,omitempty"`
	ContextTopK       int            `json:"context_top_k,omitempty"`
}

// AnalysisResponse is the complete result of one analysis call.
type AnalysisResponse struct {
	RequestID             string                 `json:"request_id"`
	AnalyzedAt            time.Time              `json:"analyzed_at"`
	MediaHookEvaluations  []HookEvaluation       `json:"media_hook_evaluations"` // Always nine entries
	ParagraphImprovements []ParagraphImprovement `json:"paragraph_improvements"`
	OverallAssessment     OverallAssessment      `json:"overall_assessment"`
	ProcessingTimeMS      int64                  `json:"processing_time_ms"`
	AIModelUsed           string                 `json:"ai_model_used"`
	RAGUsed               bool                   `json:"rag_used"`
	RAGContextCount       int                    `json:"rag_context_count"`
	Degraded              bool                   `json:"degraded"`
	FallbackReason        string                 `json:"fallback_reason,omitempty"`
}

// Industries maps industry ids to the names used in the company directory.
var Industries = map[int]string{
	1:  "商業（卸売業、小売業）",
	2:  "飲食店、宿泊業",
	3:  "金融・保険業",
	4:  "医療、福祉",
	5:  "サービス業",
	6:  "運輸業",
	7:  "製造業",
	8:  "IT・通信",
	9:  "建設業",
	10: "電気・ガス・熱供給・水道業",
	11: "不動産業",
	12: "教育、学習支援業",
	13: "農業・林業",
	14: "漁業・水産養殖業",
	15: "鉱業",
	16: "その他",
}

// Categories maps release category ids to their names.
var Categories = map[int]string{
	1:  "商品サービス",
	2:  "経営・人事",
	3:  "企業動向・業績",
	4:  "技術・研究開発",
	5:  "マーケティング・リサーチ",
	6:  "イベント・セミナー",
	7:  "キャンペーン",
	8:  "提携・M&A",
	9:  "ファイナンス",
	10: "アワード・表彰",
	11: "CSR",
	12: "その他",
}

// NamedID is an id/name pair used when listing reference tables.
type NamedID struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SortedTable returns the entries of a reference table ordered by id.
func SortedTable(table map[int]string) []NamedID {
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]NamedID, len(ids))
	for i, id := range ids {
		out[i] = NamedID{ID: id, Name: table[id]}
	}
	return out
}
