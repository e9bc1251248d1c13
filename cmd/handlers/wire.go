package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"hookscope/internal/analysis"
	"hookscope/internal/config"
	"hookscope/internal/core"
	"hookscope/internal/directory"
	"hookscope/internal/evaluate"
	"hookscope/internal/fetch"
	"hookscope/internal/grounding"
	"hookscope/internal/llm"
	"hookscope/internal/logger"
	"hookscope/internal/prtimes"
	"hookscope/internal/store"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	upstream   *prtimes.Client
	companies  *directory.Cache[core.Company]
	context    *grounding.Builder
	generation *llm.InstrumentedGenerator
	store      *store.Store
	service    *analysis.Service
}

type wireOptions struct {
	withStore bool
}

// buildApp wires every component from cfg. A missing Gemini key is not an
// error: the service then answers with the not_configured fallback.
func buildApp(ctx context.Context, cfg *config.Config, opts wireOptions) (*app, error) {
	log := logger.Get()
	a := &app{cfg: cfg}

	a.upstream = prtimes.NewClient(prtimes.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		Token:       cfg.Upstream.Token,
		Timeout:     cfg.Upstream.Timeout,
		MinInterval: cfg.Upstream.MinInterval,
	})
	if !a.upstream.Configured() {
		log.Warn("PRTIMES_TOKEN is not set; upstream calls will likely be rejected")
	}

	a.companies = directory.NewCompanyCache(a.upstream, fetch.Options{
		PageSize: cfg.Upstream.PageSize,
		MaxPages: cfg.Upstream.MaxPages,
	}, cfg.Cache.CompaniesTTL)

	a.context = grounding.NewBuilder(a.upstream, grounding.Options{
		OverfetchFactor: cfg.Grounding.OverfetchFactor,
		FetchCeiling:    cfg.Grounding.FetchCeiling,
	})

	serviceOpts := []analysis.Option{analysis.WithContextBuilder(a.context)}

	client, err := llm.NewClient(ctx, llm.Config{
		APIKey:      cfg.AI.Gemini.APIKey,
		Model:       cfg.AI.Gemini.Model,
		Timeout:     cfg.AI.Gemini.Timeout,
		MaxTokens:   cfg.AI.Gemini.MaxTokens,
		Temperature: cfg.AI.Gemini.Temperature,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("Gemini is not configured; analyses will return fallback evaluations")
	case err != nil:
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	default:
		a.generation = llm.NewInstrumentedGenerator(client)
		serviceOpts = append(serviceOpts, analysis.WithEvaluator(evaluate.NewInvoker(a.generation)))
	}

	if opts.withStore && cfg.Store.Enabled {
		st, err := store.NewStore(cfg.Store.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		a.store = st
		serviceOpts = append(serviceOpts, analysis.WithRecorder(st))
		log.Info("History store ready", "path", st.Path(), "schema_version", st.SchemaVersion())
	}

	a.service = analysis.NewService(serviceOpts...)
	return a, nil
}

// Close releases resources held by the app.
func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func viperConfigFile() string {
	return viper.ConfigFileUsed()
}
