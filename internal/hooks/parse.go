package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when model output does not contain a JSON object.
var ErrNoJSONObject = errors.New("model output is not a JSON object")

// RawOutput is model output decoded only as far as its top-level sections.
// Entries stay raw so that a malformed entry cannot spoil its neighbours;
// completion into the strict types happens in a separate step.
type RawOutput struct {
	Hooks      []json.RawMessage
	Paragraphs []json.RawMessage
	Overall    json.RawMessage
}

// Parse decodes the text returned by the model. Markdown code fences around
// the JSON are tolerated. Sections of the wrong shape are left empty.
func Parse(text string) (*RawOutput, error) {
	body := stripFences(text)
	if body == "" {
		return nil, ErrNoJSONObject
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
		if start < 0 || end <= start {
			return nil, ErrNoJSONObject
		}
		if err2 := json.Unmarshal([]byte(body[start:end+1]), &top); err2 != nil {
			return nil, fmt.Errorf("decode model output: %w", err)
		}
	}
	if top == nil {
		return nil, ErrNoJSONObject
	}

	out := &RawOutput{}
	if raw, ok := top["media_hook_evaluations"]; ok {
		_ = json.Unmarshal(raw, &out.Hooks)
	}
	if raw, ok := top["paragraph_improvements"]; ok {
		_ = json.Unmarshal(raw, &out.Paragraphs)
	}
	if raw, ok := top["overall_assessment"]; ok && isObject(raw) {
		out.Overall = raw
	}
	return out, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}
