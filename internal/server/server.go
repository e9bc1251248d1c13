package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"hookscope/internal/config"
	"hookscope/internal/core"
	"hookscope/internal/directory"
	"hookscope/internal/llm"
	"hookscope/internal/logger"
	"hookscope/internal/prtimes"
	"hookscope/internal/store"
)

const defaultRequestTimeout = 110 * time.Second

// Upstream is the content API surface used by the passthrough endpoints.
// *prtimes.Client satisfies it.
type Upstream interface {
	Companies(ctx context.Context, perPage, page int) ([]core.Company, error)
	CategoryReleases(ctx context.Context, categoryID int, q prtimes.ReleaseQuery) ([]core.Release, error)
	CompanyReleases(ctx context.Context, companyID int64, q prtimes.ReleaseQuery) ([]core.Release, error)
	ReleaseStatistics(ctx context.Context, companyID, releaseID int64) (core.ReleaseStatistics, error)
}

// CompanyDirectory is the cached company list.
type CompanyDirectory interface {
	GetOrRefresh(ctx context.Context) ([]core.Company, bool, error)
	Stats() directory.Stats
	Clear()
}

// ContextSource ranks category releases for the context window endpoints.
// *grounding.Builder satisfies it.
type ContextSource interface {
	Candidates(ctx context.Context, categoryID, windowDays, topK int) ([]core.Release, error)
}

// Analyzer runs the analysis pipeline. *analysis.Service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResponse, error)
	Configured() bool
	ModelName() string
}

// History reads and prunes stored analyses. *store.Store satisfies it.
type History interface {
	Ping(ctx context.Context) error
	GetAnalysis(ctx context.Context, id string) (*core.AnalysisResponse, error)
	ListAnalyses(ctx context.Context, opts store.ListOptions) ([]store.AnalysisSummary, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// GenerationStats reports generation backend counters.
type GenerationStats interface {
	Stats() llm.Stats
}

// Deps are the components the handlers call. Analyzer, Upstream, Companies
// and Context are required; the rest are optional.
type Deps struct {
	Upstream   Upstream
	Companies  CompanyDirectory
	Context    ContextSource
	Analyzer   Analyzer
	History    History
	Generation GenerationStats
	// Settings is the redacted configuration shown on /debug/config.
	Settings map[string]any
	// BaseURL of the content API, shown on / for diagnostics.
	BaseURL string
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	deps       Deps
	config     config.Server
	log        *slog.Logger
	now        func() time.Time
}

// New creates a new HTTP server instance
func New(deps Deps, cfg config.Server) *Server {
	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
		config: cfg,
		log:    logger.Get(),
		now:    time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	s.router.Use(middleware.Timeout(timeout))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/health/detailed", s.handleDetailedHealth)

	// Reference tables
	s.router.Get("/industries", s.handleIndustries)
	s.router.Get("/industries/{id}/companies", s.handleIndustryCompanies)
	s.router.Get("/categories", s.handleCategories)
	s.router.Get("/categories/{id}/releases", s.handleCategoryReleases)

	// Companies
	s.router.Route("/companies", func(r chi.Router) {
		r.Get("/", s.handleCompanies)
		r.Get("/{id}/releases", s.handleCompanyReleases)
		r.Get("/{id}/releases/{releaseID}/statistics", s.handleReleaseStatistics)
	})

	// Context window
	s.router.Route("/rag", func(r chi.Router) {
		r.Get("/context/{id}", s.handleContextWindow)
		r.Post("/categories/{id}", s.handleCategoryRanking)
	})

	s.router.Post("/analyze", s.handleAnalyze)
	s.router.Get("/analyses", s.handleListAnalyses)
	s.router.Get("/analyses/{id}", s.handleGetAnalysis)
	s.router.Delete("/analyses/{id}", s.handleDeleteAnalysis)
	s.router.Get("/analyses/{id}/markdown", s.handleAnalysisMarkdown)

	s.router.Get("/stats/companies/{id}", s.handleCompanyStats)
	s.router.Get("/trending", s.handleTrending)

	s.router.Route("/debug", func(r chi.Router) {
		r.Get("/config", s.handleDebugConfig)
		r.Get("/cache/clear", s.handleClearCache)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
		"model", s.deps.Analyzer.ModelName(),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
