package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"hookscope/internal/core"
)

// ErrNotFound is returned when an analysis id is unknown.
var ErrNotFound = errors.New("analysis not found")

const dbFileName = "hookscope.db"

// Store keeps a local history of analyses in SQLite.
type Store struct {
	db      *sql.DB
	path    string
	version uint
}

// AnalysisSummary is one row of the history listing.
type AnalysisSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
	TotalScore      float64   `json:"total_score"`
	Degraded        bool      `json:"degraded"`
	FallbackReason  string    `json:"fallback_reason,omitempty"`
	AIModel         string    `json:"ai_model"`
	RAGUsed         bool      `json:"rag_used"`
	RAGContextCount int       `json:"rag_context_count"`
	CategoryID      *int      `json:"category_id,omitempty"`
	ProcessingMS    int64     `json:"processing_ms"`
}

// ListOptions filters the history listing.
type ListOptions struct {
	Limit        int // Defaults to 20
	Offset       int
	DegradedOnly bool
}

// NewStore opens (and migrates) the database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Store{db: db, path: dbPath, version: version}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() uint {
	return s.version
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveAnalysis stores a response, replacing any earlier row with the same id.
func (s *Store) SaveAnalysis(ctx context.Context, title string, categoryID *int, resp *core.AnalysisResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	var category any
	if categoryID != nil {
		category = *categoryID
	}

	query, args, err := sq.Insert("analyses").
		Options("OR REPLACE").
		Columns("id", "title", "analyzed_at", "total_score", "degraded", "fallback_reason",
			"ai_model", "rag_used", "rag_context_count", "category_id", "processing_ms", "response_json").
		Values(resp.RequestID, title, resp.AnalyzedAt.UTC(), resp.OverallAssessment.TotalScore, resp.Degraded,
			resp.FallbackReason, resp.AIModelUsed, resp.RAGUsed, resp.RAGContextCount, category,
			resp.ProcessingTimeMS, string(payload)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Record implements analysis.Recorder.
func (s *Store) Record(ctx context.Context, req core.AnalysisRequest, resp *core.AnalysisResponse) error {
	return s.SaveAnalysis(ctx, req.Title, req.ContextCategoryID, resp)
}

// GetAnalysis returns the stored response for id.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*core.AnalysisResponse, error) {
	query, args, err := sq.Select("response_json").
		From("analyses").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var payload string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	var resp core.AnalysisResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &resp, nil
}

// ListAnalyses returns summaries, newest first.
func (s *Store) ListAnalyses(ctx context.Context, opts ListOptions) ([]AnalysisSummary, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	builder := sq.Select("id", "title", "analyzed_at", "total_score", "degraded", "fallback_reason",
		"ai_model", "rag_used", "rag_context_count", "category_id", "processing_ms").
		From("analyses").
		OrderBy("analyzed_at DESC", "id").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset))
	if opts.DegradedOnly {
		builder = builder.Where(sq.Eq{"degraded": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	summaries := []AnalysisSummary{}
	for rows.Next() {
		var (
			sum      AnalysisSummary
			category sql.NullInt64
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.AnalyzedAt, &sum.TotalScore, &sum.Degraded,
			&sum.FallbackReason, &sum.AIModel, &sum.RAGUsed, &sum.RAGContextCount, &category,
			&sum.ProcessingMS); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if category.Valid {
			id := int(category.Int64)
			sum.CategoryID = &id
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return summaries, nil
}

// DeleteAnalysis removes one analysis.
func (s *Store) DeleteAnalysis(ctx context.Context, id string) error {
	query, args, err := sq.Delete("analyses").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
