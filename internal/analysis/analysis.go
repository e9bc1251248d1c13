// Package analysis runs one press release evaluation end to end.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hookscope/internal/core"
	"hookscope/internal/evaluate"
	"hookscope/internal/hooks"
	"hookscope/internal/logger"
	"hookscope/internal/repair"
)

// ModelNone is reported when no generation backend is configured.
const ModelNone = "none"

// State names the stages a single analysis moves through.
type State string

const (
	StateStart               State = "START"
	StateContextBuilt        State = "CONTEXT_BUILT"
	StateContextEmpty        State = "CONTEXT_EMPTY"
	StateGenerationAttempted State = "GENERATION_ATTEMPTED"
	StateGenerationOK        State = "GENERATION_OK"
	StateGenerationFailed    State = "GENERATION_FAILED"
	StateRepaired            State = "REPAIRED"
	StateFallback            State = "FALLBACK"
	StateDone                State = "DONE"
)

// ContextBuilder produces the grounding window. *grounding.Builder satisfies it.
type ContextBuilder interface {
	Build(ctx context.Context, categoryID, windowDays, topK int) []core.ContextBrief
}

// Evaluator runs the generation call. *evaluate.Invoker satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, draft evaluate.Draft, grounding evaluate.Grounding, required []hooks.Definition) (*hooks.RawOutput, error)
	ModelName() string
}

// Recorder persists finished analyses. *store.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, req core.AnalysisRequest, resp *core.AnalysisResponse) error
}

// Service evaluates press release drafts. Context, evaluator and recorder
// are all optional: a nil evaluator always yields the static fallback.
type Service struct {
	context   ContextBuilder
	evaluator Evaluator
	recorder  Recorder
	now       func() time.Time
	newID     func() string
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithContextBuilder enables grounding.
func WithContextBuilder(b ContextBuilder) Option {
	return func(s *Service) { s.context = b }
}

// WithEvaluator sets the generation backend.
func WithEvaluator(e Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

// WithRecorder persists every response.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a generation backend is available.
func (s *Service) Configured() bool {
	return s.evaluator != nil
}

// ModelName returns the backend model, or ModelNone.
func (s *Service) ModelName() string {
	if s.evaluator == nil {
		return ModelNone
	}
	return s.evaluator.ModelName()
}

// Analyze evaluates a draft. The only error it returns is a
// *ValidationError; grounding and generation failures degrade the response
// instead.
func (s *Service) Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResponse, error) {
	req, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	start := s.now()
	requestID := s.newID()
	log := s.log.With("request_id", requestID)
	trace := func(state State, args ...any) {
		log.Debug("Analysis state", append([]any{"state", state}, args...)...)
	}
	trace(StateStart, "title", req.Title)

	required := hooks.Definitions()
	grounding := evaluate.Grounding{WindowDays: req.ContextWindowDays, TopK: req.ContextTopK}
	ragUsed := req.ContextCategoryID != nil

	if ragUsed {
		categoryID := *req.ContextCategoryID
		grounding.CategoryID = &categoryID
		grounding.CategoryName = core.Categories[categoryID]
		if s.context != nil {
			grounding.Items = s.context.Build(ctx, categoryID, req.ContextWindowDays, req.ContextTopK)
		}
		if len(grounding.Items) > 0 {
			trace(StateContextBuilt, "briefs", len(grounding.Items))
		} else {
			trace(StateContextEmpty)
		}
	}
	if grounding.Items == nil {
		grounding.Items = []core.ContextBrief{}
	}

	resp := &core.AnalysisResponse{
		RequestID:       requestID,
		AnalyzedAt:      start,
		AIModelUsed:     s.ModelName(),
		RAGUsed:         ragUsed,
		RAGContextCount: len(grounding.Items),
	}

	var result repair.Result
	if s.evaluator == nil {
		result = repair.Fallback(repair.ReasonNotConfigured, required)
		resp.Degraded = true
		resp.FallbackReason = repair.ReasonNotConfigured
		trace(StateFallback, "reason", repair.ReasonNotConfigured)
	} else {
		trace(StateGenerationAttempted, "model", resp.AIModelUsed)
		draft := evaluate.Draft{
			Title:   req.Title,
			Body:    req.ContentMarkdown,
			Persona: req.Metadata.Persona,
		}
		if req.TopImage != nil {
			draft.ImageURL = req.TopImage.URL
		}

		raw, err := s.evaluator.Evaluate(ctx, draft, grounding, required)
		if err != nil {
			trace(StateGenerationFailed)
			log.Warn("Generation failed, returning fallback evaluation", "error", err, "cancelled", errors.Is(err, context.Canceled))
			result = repair.Fallback(repair.ReasonGenerationFailed, required)
			resp.Degraded = true
			resp.FallbackReason = repair.ReasonGenerationFailed
			trace(StateFallback, "reason", repair.ReasonGenerationFailed)
		} else {
			trace(StateGenerationOK)
			result = repair.Output(raw, required)
			if len(result.Repaired) > 0 {
				log.Warn("Model output was incomplete, synthesized placeholders", "repaired", result.Repaired)
			}
			trace(StateRepaired, "repaired", len(result.Repaired))
		}
	}

	resp.MediaHookEvaluations = result.Hooks
	resp.ParagraphImprovements = result.Paragraphs
	resp.OverallAssessment = result.Overall
	resp.ProcessingTimeMS = s.now().Sub(start).Milliseconds()

	if err := hooks.Check(resp.MediaHookEvaluations); err != nil {
		// repair guarantees completeness; reaching this is a bug.
		log.Error("Analysis response failed the hook contract", "error", err)
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, req, resp); err != nil {
			log.Warn("Failed to record analysis", "error", err)
		}
	}

	trace(StateDone, "processing_ms", resp.ProcessingTimeMS, "degraded", resp.Degraded)
	log.Info("Analysis completed",
		"model", resp.AIModelUsed,
		"rag_used", resp.RAGUsed,
		"rag_context_count", resp.RAGContextCount,
		"total_score", resp.OverallAssessment.TotalScore,
		"degraded", resp.Degraded,
		"processing_ms", resp.ProcessingTimeMS,
	)
	return resp, nil
}
