package report

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorText    = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	colorGood    = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorBad     = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginTop(1)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorText)

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarn)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	// SelectedStyle highlights the active row in list views.
	SelectedStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	// DimStyle renders secondary text.
	DimStyle = metaStyle
)

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 4:
		return lipgloss.NewStyle().Foreground(colorGood)
	case score <= 2:
		return lipgloss.NewStyle().Foreground(colorBad)
	default:
		return lipgloss.NewStyle().Foreground(colorWarn)
	}
}
