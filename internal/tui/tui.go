// Package tui is an interactive browser for one analysis result.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hookscope/internal/core"
	"hookscope/internal/report"
)

// model holds the browser state. Row len(hooks) is the overall summary.
type model struct {
	resp        *core.AnalysisResponse
	selectedIdx int
	width       int
	height      int
	detail      viewport.Model
	quitting    bool
}

var keys = struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Quit     key.Binding
}{
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
	Home:     key.NewBinding(key.WithKeys("home", "g")),
	End:      key.NewBinding(key.WithKeys("end", "G")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// newModel returns the initial state for resp.
func newModel(resp *core.AnalysisResponse) model {
	m := model{resp: resp, width: 100, height: 30}
	m.detail = viewport.New(m.detailWidth(), m.detailHeight())
	m.refreshDetail()
	return m
}

func (m model) listWidth() int {
	return m.width/3 + 4
}

func (m model) detailWidth() int {
	w := m.width - m.listWidth() - 6
	if w < 30 {
		w = 30
	}
	return w
}

// detailHeight leaves room for the pane border and the help line.
func (m model) detailHeight() int {
	h := m.height - 3
	if h < 5 {
		h = 5
	}
	return h
}

// refreshDetail loads the selected row into the detail viewport.
func (m *model) refreshDetail() {
	var content string
	if m.selectedIdx < len(m.resp.MediaHookEvaluations) {
		content = report.HookDetail(m.resp.MediaHookEvaluations[m.selectedIdx], m.detailWidth())
	} else {
		content = report.Render(m.resp, m.detailWidth())
	}
	m.detail.SetContent(content)
	m.detail.GotoTop()
}

// Init is the first command that will be run. We don't need any for now.
func (m model) Init() tea.Cmd {
	return nil
}

func (m model) rows() int {
	return len(m.resp.MediaHookEvaluations) + 1
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = m.detailWidth()
		m.detail.Height = m.detailHeight()
		m.refreshDetail()

	case tea.KeyMsg:
		prev := m.selectedIdx
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case key.Matches(msg, keys.Down):
			if m.selectedIdx < m.rows()-1 {
				m.selectedIdx++
			}
		case key.Matches(msg, keys.Home):
			m.selectedIdx = 0
		case key.Matches(msg, keys.End):
			m.selectedIdx = m.rows() - 1
		case key.Matches(msg, keys.PageUp):
			m.detail.HalfViewUp()
		case key.Matches(msg, keys.PageDown):
			m.detail.HalfViewDown()
		}
		if m.selectedIdx != prev {
			m.refreshDetail()
		}
	}

	return m, nil
}

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return ""
	}

	pane := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	var list strings.Builder
	for i, h := range m.resp.MediaHookEvaluations {
		list.WriteString(m.row(i, report.HookLine(h)))
		list.WriteString("\n")
	}
	list.WriteString(m.row(len(m.resp.MediaHookEvaluations),
		fmt.Sprintf("総合 %.1f", m.resp.OverallAssessment.TotalScore)))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		pane.Width(m.listWidth()).Render(list.String()),
		pane.Width(m.detailWidth()).Render(m.detail.View()),
	)
	help := report.DimStyle.Render("[↑/k] Up | [↓/j] Down | [ctrl+u/d] Scroll | [q] Quit")

	return lipgloss.JoinVertical(lipgloss.Left, body, help)
}

func (m model) row(i int, text string) string {
	if i == m.selectedIdx {
		return report.SelectedStyle.Render("> " + text)
	}
	return "  " + text
}

// Run opens the browser and blocks until the user quits.
func Run(resp *core.AnalysisResponse) error {
	if resp == nil {
		return fmt.Errorf("no analysis to display")
	}
	p := tea.NewProgram(newModel(resp), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
