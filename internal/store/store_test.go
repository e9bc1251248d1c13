package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"hookscope/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResponse(analyzedAt time.Time, degraded bool) *core.AnalysisResponse {
	resp := &core.AnalysisResponse{
		RequestID:  uuid.NewString(),
		AnalyzedAt: analyzedAt,
		MediaHookEvaluations: []core.HookEvaluation{
			{HookType: "regional", HookNameJA: "地域性", Score: 4, Description: "地元の話題", ImproveExamples: []string{"地名を入れる"}},
		},
		ParagraphImprovements: []core.ParagraphImprovement{},
		OverallAssessment:     core.OverallAssessment{TotalScore: 3.4},
		ProcessingTimeMS:      1200,
		AIModelUsed:           "gemini-2.5-flash",
		RAGUsed:               true,
		RAGContextCount:       5,
		Degraded:              degraded,
	}
	if degraded {
		resp.AIModelUsed = "none"
		resp.FallbackReason = "not_configured"
	}
	return resp
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := os.Stat(filepath.Join(tmpDir, "hookscope.db")); os.IsNotExist(err) {
		t.Error("Database file should be created")
	}
	if store.SchemaVersion() != 1 {
		t.Errorf("Expected schema version 1, got %d", store.SchemaVersion())
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewStore_Reopen(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	_ = first.Close()

	second, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("Reopening an existing database failed: %v", err)
	}
	_ = second.Close()
}

func TestNewStore_InvalidDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	invalidPath := filepath.Join(tmpDir, "file.txt")
	_ = os.WriteFile(invalidPath, []byte("test"), 0644)

	if _, err := NewStore(invalidPath); err == nil {
		t.Error("Expected error when creating store in invalid directory")
	}
}

func TestSaveAndGetAnalysis(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	resp := sampleResponse(time.Now().UTC().Truncate(time.Second), false)
	category := 3

	if err := store.SaveAnalysis(ctx, "新商品のお知らせ", &category, resp); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := store.GetAnalysis(ctx, resp.RequestID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got.RequestID != resp.RequestID || got.OverallAssessment.TotalScore != 3.4 {
		t.Errorf("Unexpected response: %+v", got)
	}
	if len(got.MediaHookEvaluations) != 1 || got.MediaHookEvaluations[0].ImproveExamples[0] != "地名を入れる" {
		t.Errorf("Evaluations did not round trip: %+v", got.MediaHookEvaluations)
	}
	if !got.AnalyzedAt.Equal(resp.AnalyzedAt) {
		t.Errorf("AnalyzedAt = %v, want %v", got.AnalyzedAt, resp.AnalyzedAt)
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetAnalysis(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRecord(t *testing.T) {
	store := newTestStore(t)
	category := 7
	resp := sampleResponse(time.Now(), false)

	err := store.Record(context.Background(), core.AnalysisRequest{Title: "キャンペーン開始", ContextCategoryID: &category}, resp)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	list, err := store.ListAnalyses(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(list) != 1 || list[0].Title != "キャンペーン開始" || list[0].CategoryID == nil || *list[0].CategoryID != 7 {
		t.Errorf("Unexpected listing: %+v", list)
	}
}

func TestListAnalyses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 5; i++ {
		resp := sampleResponse(base.Add(time.Duration(i)*time.Hour), i%2 == 0)
		ids = append(ids, resp.RequestID)
		if err := store.SaveAnalysis(ctx, "title", nil, resp); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
	}

	all, err := store.ListAnalyses(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(all) != 5 || all[0].ID != ids[4] || all[4].ID != ids[0] {
		t.Errorf("Expected newest first, got %+v", all)
	}
	if all[0].CategoryID != nil {
		t.Error("CategoryID should be nil when not set")
	}

	page, _ := store.ListAnalyses(ctx, ListOptions{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != ids[3] {
		t.Errorf("Unexpected page: %+v", page)
	}

	degraded, _ := store.ListAnalyses(ctx, ListOptions{DegradedOnly: true})
	if len(degraded) != 3 {
		t.Fatalf("Expected 3 degraded analyses, got %d", len(degraded))
	}
	for _, d := range degraded {
		if !d.Degraded || d.AIModel != "none" || d.FallbackReason != "not_configured" {
			t.Errorf("Unexpected degraded row: %+v", d)
		}
	}
}

func TestDeleteAnalysis(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	resp := sampleResponse(time.Now(), false)
	_ = store.SaveAnalysis(ctx, "t", nil, resp)

	if err := store.DeleteAnalysis(ctx, resp.RequestID); err != nil {
		t.Fatalf("DeleteAnalysis failed: %v", err)
	}
	if err := store.DeleteAnalysis(ctx, resp.RequestID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Second delete should return ErrNotFound, got %v", err)
	}
}
