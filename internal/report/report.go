// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hookscope/internal/core"
)

const (
	defaultWidth = 80
	minWidth     = 40
	maxScore     = 5
)

// ScoreBar draws a five-cell meter for a 1..5 score.
func ScoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	bar := strings.Repeat("■", score) + strings.Repeat("□", maxScore-score)
	return scoreStyle(score).Render(bar) + fmt.Sprintf(" %d/%d", score, maxScore)
}

// HookLine is the one-line summary used in lists.
func HookLine(h core.HookEvaluation) string {
	return fmt.Sprintf("%s  %s", ScoreBar(h.Score), h.HookNameJA)
}

// HookDetail renders one hook evaluation with its suggestions.
func HookDetail(h core.HookEvaluation, width int) string {
	width = clampWidth(width)
	var b strings.Builder

	b.WriteString(titleStyle.Render(h.HookNameJA))
	b.WriteString(metaStyle.Render("  (" + string(h.HookType) + ")"))
	b.WriteString("\n")
	b.WriteString(ScoreBar(h.Score))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Width(width).Render(h.Description))
	b.WriteString("\n")

	writeList(&b, "現状の要素", h.CurrentElements, width)
	writeList(&b, "改善例", h.ImproveExamples, width)
	writeList(&b, "成功パターン", h.SuccessPatterns, width)

	return b.String()
}

// Render formats a full analysis response.
func Render(resp *core.AnalysisResponse, width int) string {
	if resp == nil {
		return ""
	}
	width = clampWidth(width)
	var b strings.Builder

	header := fmt.Sprintf("総合スコア %.1f / %d", resp.OverallAssessment.TotalScore, maxScore)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("model=%s  rag=%v (%d件)  %dms  id=%s",
		resp.AIModelUsed, resp.RAGUsed, resp.RAGContextCount, resp.ProcessingTimeMS, resp.RequestID)))
	b.WriteString("\n")

	if resp.Degraded {
		b.WriteString(warnStyle.Render(fmt.Sprintf("⚠ 簡易評価です (reason: %s)", resp.FallbackReason)))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("メディアフック評価"))
	b.WriteString("\n")
	rows := make([]string, 0, len(resp.MediaHookEvaluations))
	for _, h := range resp.MediaHookEvaluations {
		rows = append(rows, HookLine(h))
	}
	b.WriteString(boxStyle.Width(width - 2).Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	o := resp.OverallAssessment
	writeList(&b, "強み", o.Strengths, width)
	writeList(&b, "弱み", o.Weaknesses, width)
	writeList(&b, "優先すべき改善", o.TopRecommendations, width)
	if o.EstimatedImpact != "" {
		b.WriteString(sectionStyle.Render("想定インパクト"))
		b.WriteString("\n")
		b.WriteString(bodyStyle.Width(width).Render(o.EstimatedImpact))
		b.WriteString("\n")
	}

	if len(resp.ParagraphImprovements) > 0 {
		b.WriteString(sectionStyle.Render("段落の改善案"))
		b.WriteString("\n")
		for _, p := range resp.ParagraphImprovements {
			b.WriteString(metaStyle.Render("● " + p.Where))
			b.WriteString("\n")
			if p.Before != "" {
				b.WriteString(bodyStyle.Width(width).Render("before: " + p.Before))
				b.WriteString("\n")
			}
			b.WriteString(bodyStyle.Width(width).Render("after:  " + p.After))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// ContextTable renders context briefs as a compact list.
func ContextTable(briefs []core.ContextBrief, width int) string {
	width = clampWidth(width)
	if len(briefs) == 0 {
		return metaStyle.Render("(no context releases)")
	}
	lines := make([]string, 0, len(briefs))
	for i, c := range briefs {
		head := fmt.Sprintf("%2d. ♥%-4d %s", i+1, c.Likes, c.Title)
		meta := fmt.Sprintf("    %s  %s  %s", c.Date, c.Company, c.SubCategory)
		lines = append(lines, bodyStyle.Width(width).Render(head), metaStyle.Render(meta))
	}
	return strings.Join(lines, "\n")
}

func writeList(b *strings.Builder, heading string, items []string, width int) {
	if len(items) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render(heading))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString(bodyStyle.Width(width).Render("• " + item))
		b.WriteString("\n")
	}
}

func clampWidth(width int) int {
	if width <= 0 {
		return defaultWidth
	}
	if width < minWidth {
		return minWidth
	}
	return width
}
