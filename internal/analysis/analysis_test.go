package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"hookscope/internal/core"
	"hookscope/internal/evaluate"
	"hookscope/internal/hooks"
	"hookscope/internal/repair"
)

type fakeContext struct {
	briefs []core.ContextBrief
	calls  int
	args   [3]int
}

func (f *fakeContext) Build(ctx context.Context, categoryID, windowDays, topK int) []core.ContextBrief {
	f.calls++
	f.args = [3]int{categoryID, windowDays, topK}
	return f.briefs
}

type fakeEvaluator struct {
	raw       *hooks.RawOutput
	err       error
	calls     int
	draft     evaluate.Draft
	grounding evaluate.Grounding
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, draft evaluate.Draft, grounding evaluate.Grounding, required []hooks.Definition) (*hooks.RawOutput, error) {
	f.calls++
	f.draft = draft
	f.grounding = grounding
	return f.raw, f.err
}

func (f *fakeEvaluator) ModelName() string { return "fake-model" }

type fakeRecorder struct {
	saved []*core.AnalysisResponse
	err   error
}

func (f *fakeRecorder) Record(ctx context.Context, req core.AnalysisRequest, resp *core.AnalysisResponse) error {
	f.saved = append(f.saved, resp)
	return f.err
}

func validRequest() core.AnalysisRequest {
	return core.AnalysisRequest{Title: "新商品発売", ContentMarkdown: "# 本文\n\n内容"}
}

func intPtr(v int) *int { return &v }

func rawWithHooks(types ...core.HookType) *hooks.RawOutput {
	out := &hooks.RawOutput{Overall: json.RawMessage(`{"total_score": 3.8, "strengths": ["地域性"]}`)}
	for _, t := range types {
		data, _ := json.Marshal(map[string]any{"hook_type": t, "score": 4, "description": "良い"})
		out.Hooks = append(out.Hooks, data)
	}
	return out
}

func allTypes() []core.HookType {
	var out []core.HookType
	for _, d := range hooks.Definitions() {
		out = append(out, d.Type)
	}
	return out
}

func TestAnalyze_NotConfigured(t *testing.T) {
	svc := NewService()

	resp, err := svc.Analyze(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if resp.AIModelUsed != ModelNone {
		t.Errorf("AIModelUsed = %q, want none", resp.AIModelUsed)
	}
	if !hooks.IsComplete(resp.MediaHookEvaluations) {
		t.Error("Fallback must contain all nine hooks")
	}
	if resp.OverallAssessment.TotalScore != repair.DegradedTotalScore || !resp.OverallAssessment.Degraded {
		t.Errorf("Unexpected overall: %+v", resp.OverallAssessment)
	}
	if !resp.Degraded || resp.FallbackReason != repair.ReasonNotConfigured {
		t.Errorf("Expected not_configured fallback, got degraded=%v reason=%q", resp.Degraded, resp.FallbackReason)
	}
	if resp.RequestID == "" || resp.AnalyzedAt.IsZero() {
		t.Error("Request id and timestamp must be set")
	}
	if resp.RAGUsed || resp.RAGContextCount != 0 {
		t.Error("RAG should be unused without a category")
	}
}

func TestAnalyze_Success(t *testing.T) {
	ctxBuilder := &fakeContext{briefs: []core.ContextBrief{{Title: "a"}, {Title: "b"}}}
	eval := &fakeEvaluator{raw: rawWithHooks(allTypes()...)}
	rec := &fakeRecorder{}
	svc := NewService(WithContextBuilder(ctxBuilder), WithEvaluator(eval), WithRecorder(rec))

	req := validRequest()
	req.ContextCategoryID = intPtr(5)
	req.TopImage = &core.ImageData{URL: "https://example.com/top.png"}

	resp, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if ctxBuilder.args != [3]int{5, DefaultWindowDays, DefaultTopK} {
		t.Errorf("Context built with %v", ctxBuilder.args)
	}
	if eval.calls != 1 {
		t.Errorf("Expected exactly one generation attempt, got %d", eval.calls)
	}
	if eval.draft.Persona != "指定なし" || eval.draft.ImageURL != "https://example.com/top.png" {
		t.Errorf("Unexpected draft: %+v", eval.draft)
	}
	if eval.grounding.CategoryName != "マーケティング・リサーチ" || len(eval.grounding.Items) != 2 {
		t.Errorf("Unexpected grounding: %+v", eval.grounding)
	}

	if resp.AIModelUsed != "fake-model" || resp.Degraded || resp.FallbackReason != "" {
		t.Errorf("Unexpected response metadata: %+v", resp)
	}
	if !resp.RAGUsed || resp.RAGContextCount != 2 {
		t.Errorf("Expected rag_used with 2 briefs, got %v/%d", resp.RAGUsed, resp.RAGContextCount)
	}
	if resp.OverallAssessment.TotalScore != 3.8 {
		t.Errorf("TotalScore = %v", resp.OverallAssessment.TotalScore)
	}
	for _, ev := range resp.MediaHookEvaluations {
		if ev.Score != 4 {
			t.Errorf("%s score = %d, want passthrough 4", ev.HookType, ev.Score)
		}
	}
	if len(rec.saved) != 1 || rec.saved[0] != resp {
		t.Error("Response should be recorded")
	}
}

func TestAnalyze_PartialOutputRepaired(t *testing.T) {
	eval := &fakeEvaluator{raw: rawWithHooks(allTypes()[:7]...)}
	svc := NewService(WithEvaluator(eval))

	resp, err := svc.Analyze(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !hooks.IsComplete(resp.MediaHookEvaluations) {
		t.Fatal("Repaired response must be complete")
	}
	for i, ev := range resp.MediaHookEvaluations {
		want := 4
		if i >= 7 {
			want = repair.PlaceholderScore
		}
		if ev.Score != want {
			t.Errorf("%s score = %d, want %d", ev.HookType, ev.Score, want)
		}
	}
	if resp.Degraded {
		t.Error("Partial repair is not a degraded response")
	}
}

func TestAnalyze_GenerationFailure(t *testing.T) {
	eval := &fakeEvaluator{err: &evaluate.GenerationError{Stage: "generate", Err: context.DeadlineExceeded}}
	svc := NewService(WithEvaluator(eval))

	resp, err := svc.Analyze(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generation failure must not surface, got %v", err)
	}

	if !resp.Degraded || resp.FallbackReason != repair.ReasonGenerationFailed {
		t.Errorf("Expected generation_failed fallback, got %+v", resp)
	}
	if resp.AIModelUsed != "fake-model" {
		t.Errorf("Model should still be reported, got %q", resp.AIModelUsed)
	}
	if !hooks.IsComplete(resp.MediaHookEvaluations) || resp.MediaHookEvaluations[0].Score != repair.PlaceholderScore {
		t.Error("Fallback should hold nine placeholders")
	}
	if eval.calls != 1 {
		t.Errorf("Generation must not be retried, got %d calls", eval.calls)
	}
}

func TestAnalyze_EmptyContextStillRuns(t *testing.T) {
	ctxBuilder := &fakeContext{briefs: []core.ContextBrief{}}
	eval := &fakeEvaluator{raw: rawWithHooks(allTypes()...)}
	svc := NewService(WithContextBuilder(ctxBuilder), WithEvaluator(eval))

	req := validRequest()
	req.ContextCategoryID = intPtr(1)

	resp, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !resp.RAGUsed || resp.RAGContextCount != 0 {
		t.Errorf("Expected rag_used with zero briefs, got %v/%d", resp.RAGUsed, resp.RAGContextCount)
	}
	if eval.grounding.Items == nil {
		t.Error("Grounding items should be an empty list")
	}
}

func TestAnalyze_RecorderFailureIgnored(t *testing.T) {
	svc := NewService(WithRecorder(&fakeRecorder{err: errors.New("disk full")}))

	if _, err := svc.Analyze(context.Background(), validRequest()); err != nil {
		t.Errorf("Recorder failure should not fail the analysis: %v", err)
	}
}

func TestAnalyze_ValidationBeforeWork(t *testing.T) {
	ctxBuilder := &fakeContext{}
	eval := &fakeEvaluator{}
	svc := NewService(WithContextBuilder(ctxBuilder), WithEvaluator(eval))

	req := validRequest()
	req.Title = ""
	req.ContextCategoryID = intPtr(1)

	_, err := svc.Analyze(context.Background(), req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ctxBuilder.calls != 0 || eval.calls != 0 {
		t.Error("No work should happen for an invalid request")
	}
}

func TestAnalyze_ProcessingTime(t *testing.T) {
	svc := NewService()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 250 * time.Millisecond)
	}
	svc.newID = func() string { return "fixed-id" }

	resp, _ := svc.Analyze(context.Background(), validRequest())

	if resp.ProcessingTimeMS != 250 || resp.RequestID != "fixed-id" || !resp.AnalyzedAt.Equal(base) {
		t.Errorf("Unexpected timing: %d ms, id %s, at %v", resp.ProcessingTimeMS, resp.RequestID, resp.AnalyzedAt)
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.AnalysisRequest)
		field  string
	}{
		{"empty title", func(r *core.AnalysisRequest) { r.Title = "   " }, "title"},
		{"long title", func(r *core.AnalysisRequest) { r.Title = strings.Repeat("長", 201) }, "title"},
		{"empty body", func(r *core.AnalysisRequest) { r.ContentMarkdown = "" }, "content_markdown"},
		{"category zero", func(r *core.AnalysisRequest) { r.ContextCategoryID = intPtr(0) }, "context_category_id"},
		{"window too large", func(r *core.AnalysisRequest) { r.ContextWindowDays = 181 }, "context_window_days"},
		{"window negative", func(r *core.AnalysisRequest) { r.ContextWindowDays = -1 }, "context_window_days"},
		{"top k too large", func(r *core.AnalysisRequest) { r.ContextTopK = 31 }, "context_top_k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := ValidateRequest(req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Fields[0].Field != tt.field {
				t.Errorf("Field = %s, want %s", verr.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestValidateRequest_Defaults(t *testing.T) {
	req := validRequest()
	req.Title = "  タイトル  "
	req.Metadata = &core.DraftMetadata{Persona: "子育て世代"}

	got, err := ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if got.Title != "タイトル" || got.ContextWindowDays != 30 || got.ContextTopK != 12 {
		t.Errorf("Unexpected defaults: %+v", got)
	}
	if got.Metadata.Persona != "子育て世代" {
		t.Errorf("Persona should be kept, got %q", got.Metadata.Persona)
	}

	edge := validRequest()
	edge.Title = strings.Repeat("長", 200)
	edge.ContextWindowDays = 180
	edge.ContextTopK = 30
	if _, err := ValidateRequest(edge); err != nil {
		t.Errorf("Boundary values should be accepted: %v", err)
	}
}
