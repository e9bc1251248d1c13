package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"hookscope/internal/core"
	"hookscope/internal/hooks"
	"hookscope/internal/repair"
)

func testResponse() *core.AnalysisResponse {
	result := repair.Fallback(repair.ReasonGenerationFailed, hooks.Definitions())
	return &core.AnalysisResponse{
		MediaHookEvaluations: result.Hooks,
		OverallAssessment:    result.Overall,
		Degraded:             true,
		FallbackReason:       repair.ReasonGenerationFailed,
	}
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestNavigation(t *testing.T) {
	var m tea.Model = newModel(testResponse())

	m = press(m, "up")
	if got := m.(model).selectedIdx; got != 0 {
		t.Errorf("Up at the top should stay at 0, got %d", got)
	}

	m = press(m, "down")
	m = press(m, "j")
	if got := m.(model).selectedIdx; got != 2 {
		t.Errorf("Expected row 2, got %d", got)
	}

	m = press(m, "G")
	if got := m.(model).selectedIdx; got != 9 {
		t.Errorf("End should select the overall row, got %d", got)
	}
	m = press(m, "down")
	if got := m.(model).selectedIdx; got != 9 {
		t.Errorf("Down at the bottom should stay, got %d", got)
	}
}

func TestView(t *testing.T) {
	resp := testResponse()
	var m tea.Model = newModel(resp)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	first := resp.MediaHookEvaluations[0]
	if !strings.Contains(view, "> ") || !strings.Contains(view, first.HookNameJA) {
		t.Errorf("View should highlight the first hook:\n%s", view)
	}

	m = press(m, "G")
	if view := m.View(); !strings.Contains(view, "generation_failed") {
		t.Errorf("Overall row should show the full report:\n%s", view)
	}
}

func TestQuit(t *testing.T) {
	m := newModel(testResponse())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !next.(model).quitting {
		t.Error("q should quit")
	}
	if next.View() != "" {
		t.Error("View should be empty after quitting")
	}
}

func TestDetailScrollKeepsSelection(t *testing.T) {
	var m tea.Model = newModel(testResponse())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = press(m, "G")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if got := next.(model).selectedIdx; got != 9 {
		t.Errorf("Scrolling should not move the selection, got %d", got)
	}
	if next.(model).detail.Height != 7 {
		t.Errorf("Expected detail height 7, got %d", next.(model).detail.Height)
	}
}
