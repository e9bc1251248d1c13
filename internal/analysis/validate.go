package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"hookscope/internal/core"
)

// Request bounds and defaults.
const (
	MaxTitleRunes     = 200
	DefaultWindowDays = 30
	MaxWindowDays     = 180
	DefaultTopK       = 12
	MaxTopK           = 30
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request violates its bounds. It is
// raised before any network call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid analysis request: %s", strings.Join(parts, "; "))
}

// ValidateRequest checks req and returns a copy with defaults applied.
func ValidateRequest(req core.AnalysisRequest) (core.AnalysisRequest, error) {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	title := strings.TrimSpace(req.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		add("title", "must not be empty")
	case n > MaxTitleRunes:
		add("title", "must be at most %d characters, got %d", MaxTitleRunes, n)
	}

	if strings.TrimSpace(req.ContentMarkdown) == "" {
		add("content_markdown", "must not be empty")
	}

	if req.ContextCategoryID != nil && *req.ContextCategoryID < 1 {
		add("context_category_id", "must be at least 1")
	}

	if req.ContextWindowDays == 0 {
		req.ContextWindowDays = DefaultWindowDays
	} else if req.ContextWindowDays < 1 || req.ContextWindowDays > MaxWindowDays {
		add("context_window_days", "must be between 1 and %d", MaxWindowDays)
	}

	if req.ContextTopK == 0 {
		req.ContextTopK = DefaultTopK
	} else if req.ContextTopK < 1 || req.ContextTopK > MaxTopK {
		add("context_top_k", "must be between 1 and %d", MaxTopK)
	}

	if len(errs) > 0 {
		return req, &ValidationError{Fields: errs}
	}

	req.Title = title
	if req.Metadata == nil || strings.TrimSpace(req.Metadata.Persona) == "" {
		req.Metadata = &core.DraftMetadata{Persona: "指定なし"}
	}
	return req, nil
}
