// Package render writes analysis results as Markdown documents.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hookscope/internal/core"
)

// DefaultOutputDir is used when no directory is given.
const DefaultOutputDir = "reports"

// Markdown renders a full analysis as a Markdown document.
func Markdown(title string, resp *core.AnalysisResponse) string {
	var md strings.Builder
	o := resp.OverallAssessment

	if title == "" {
		title = "Press release analysis"
	}
	md.WriteString(fmt.Sprintf("# %s\n\n", title))
	md.WriteString(fmt.Sprintf("- 総合スコア: **%.1f / 5**\n", o.TotalScore))
	md.WriteString(fmt.Sprintf("- 分析日時: %s\n", resp.AnalyzedAt.UTC().Format("2006-01-02 15:04 UTC")))
	md.WriteString(fmt.Sprintf("- モデル: %s\n", resp.AIModelUsed))
	md.WriteString(fmt.Sprintf("- 参考リリース: %d件\n", resp.RAGContextCount))
	md.WriteString(fmt.Sprintf("- Request ID: `%s`\n\n", resp.RequestID))

	if resp.Degraded {
		md.WriteString(fmt.Sprintf("> **Note:** 簡易評価です (reason: `%s`)。AI による評価は行われていません。\n\n", resp.FallbackReason))
	}

	md.WriteString("## メディアフック評価\n\n")
	md.WriteString("| フック | スコア |\n|---|---|\n")
	for _, h := range resp.MediaHookEvaluations {
		md.WriteString(fmt.Sprintf("| %s | %d/5 |\n", h.HookNameJA, h.Score))
	}
	md.WriteString("\n")

	for i, h := range resp.MediaHookEvaluations {
		md.WriteString(fmt.Sprintf("### %d. %s (%d/5)\n\n", i+1, h.HookNameJA, h.Score))
		md.WriteString(h.Description + "\n\n")
		writeBullets(&md, "現状の要素", h.CurrentElements)
		writeBullets(&md, "改善例", h.ImproveExamples)
		writeBullets(&md, "成功パターン", h.SuccessPatterns)
	}

	md.WriteString("## 総合評価\n\n")
	writeBullets(&md, "強み", o.Strengths)
	writeBullets(&md, "弱み", o.Weaknesses)
	writeBullets(&md, "優先すべき改善", o.TopRecommendations)
	if o.EstimatedImpact != "" {
		md.WriteString(fmt.Sprintf("**想定インパクト:** %s\n\n", o.EstimatedImpact))
	}
	if o.BenchmarkComparison != "" {
		md.WriteString(fmt.Sprintf("**ベンチマーク比較:** %s\n\n", o.BenchmarkComparison))
	}

	if len(resp.ParagraphImprovements) > 0 {
		md.WriteString("## 段落の改善案\n\n")
		for _, p := range resp.ParagraphImprovements {
			md.WriteString(fmt.Sprintf("### %s\n\n", p.Where))
			if p.Before != "" {
				md.WriteString(fmt.Sprintf("**Before:** %s\n\n", p.Before))
			}
			md.WriteString(fmt.Sprintf("**After:** %s\n\n", p.After))
			if p.ReferenceExample != "" {
				md.WriteString(fmt.Sprintf("*参考:* %s\n\n", p.ReferenceExample))
			}
		}
	}

	return md.String()
}

func writeBullets(md *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	md.WriteString(fmt.Sprintf("**%s**\n\n", heading))
	for _, item := range items {
		md.WriteString("- " + item + "\n")
	}
	md.WriteString("\n")
}

// Filename returns the report file name for resp.
func Filename(resp *core.AnalysisResponse) string {
	id := resp.RequestID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("analysis_%s_%s.md", resp.AnalyzedAt.UTC().Format("2006-01-02"), id)
}

// RenderMarkdownReport writes the analysis report into outputDir and
// returns the file path.
func RenderMarkdownReport(title string, resp *core.AnalysisResponse, outputDir string) (string, error) {
	return WriteReportToFile(Markdown(title, resp), outputDir, Filename(resp))
}

// WriteReportToFile writes the provided content to a file in the specified directory
func WriteReportToFile(content, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)

	err = os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write report file %s: %w", filePath, err)
	}

	return filePath, nil
}
