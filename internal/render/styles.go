package render

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan

	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber

	ColorText      = lipgloss.Color("#E5E7EB")
	ColorTextMuted = lipgloss.Color("#9CA3AF")
	ColorBorder    = lipgloss.Color("#374151")
)

// palette holds styles bound to one lipgloss renderer, so color output
// follows the destination writer.
type palette struct {
	title    lipgloss.Style
	stage    lipgloss.Style
	good     lipgloss.Style
	degraded lipgloss.Style
	muted    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	border   lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	return palette{
		title: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1),
		stage: r.NewStyle().
			Bold(true).
			Foreground(ColorSecondary),
		good:     r.NewStyle().Foreground(ColorSuccess),
		degraded: r.NewStyle().Foreground(ColorWarning).Bold(true),
		muted:    r.NewStyle().Foreground(ColorTextMuted),
		header: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1),
		cell: r.NewStyle().
			Foreground(ColorText).
			Padding(0, 1),
		border: r.NewStyle().Foreground(ColorBorder),
	}
}
