package llm

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"hookscope/internal/logger"
)

// Stats is a point-in-time view of generation activity.
type Stats struct {
	Calls         int64   `json:"calls"`
	Failures      int64   `json:"failures"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	LastLatencyMS int64   `json:"last_latency_ms"`
	EstTokens     int64   `json:"estimated_tokens"`
}

// InstrumentedGenerator wraps a Generator and records call counts, latency
// and a rough token estimate for the health endpoint.
type InstrumentedGenerator struct {
	next Generator
	log  *slog.Logger

	calls       atomic.Int64
	failures    atomic.Int64
	totalMS     atomic.Int64
	lastMS      atomic.Int64
	tokensGuess atomic.Int64
}

// NewInstrumentedGenerator wraps next.
func NewInstrumentedGenerator(next Generator) *InstrumentedGenerator {
	return &InstrumentedGenerator{next: next, log: logger.Get()}
}

// ModelName returns the wrapped generator's model.
func (g *InstrumentedGenerator) ModelName() string {
	return g.next.ModelName()
}

// GenerateText delegates to the wrapped generator.
func (g *InstrumentedGenerator) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	start := time.Now()
	result, err := g.next.GenerateText(ctx, prompt, options)
	latency := time.Since(start).Milliseconds()

	g.calls.Add(1)
	g.totalMS.Add(latency)
	g.lastMS.Store(latency)
	g.tokensGuess.Add(estimateTokens(options.SystemInstruction+prompt, result))

	model := options.Model
	if model == "" {
		model = g.next.ModelName()
	}

	if err != nil {
		g.failures.Add(1)
		g.log.Warn("Generation failed", "model", model, "latency_ms", latency, "error", err)
		return "", err
	}

	g.log.Debug("Generation completed", "model", model, "latency_ms", latency, "response_chars", len(result))
	return result, nil
}

// Stats returns the counters collected so far.
func (g *InstrumentedGenerator) Stats() Stats {
	calls := g.calls.Load()
	s := Stats{
		Calls:         calls,
		Failures:      g.failures.Load(),
		LastLatencyMS: g.lastMS.Load(),
		EstTokens:     g.tokensGuess.Load(),
	}
	if calls > 0 {
		s.AvgLatencyMS = float64(g.totalMS.Load()) / float64(calls)
	}
	return s
}

// estimateTokens uses the rough four-characters-per-token rule.
func estimateTokens(prompt, completion string) int64 {
	return int64((len(prompt) + len(completion)) / 4)
}
