package output

import "github.com/charmbracelet/lipgloss"

// Palette shared by the CLI and the browse view.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	ColorGold   = lipgloss.Color("#D4AF37")
	ColorSilver = lipgloss.Color("#A8A9AD")
	ColorBronze = lipgloss.Color("#CD7F32")
)

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	ID      lipgloss.Style

	// Top marks a cell among the top-N values of its column.
	Top lipgloss.Style
	// Tier1 to Tier3 colour the three highest leaderboard totals.
	Tier1 lipgloss.Style
	Tier2 lipgloss.Style
	Tier3 lipgloss.Style
}

// NewStyles builds the styles for a lipgloss renderer.
func NewStyles(lr *lipgloss.Renderer) Styles {
	return Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(ColorPrimary).Underline(true),
		Header2: lr.NewStyle().Bold(true).Foreground(ColorPrimary),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(ColorMuted),
		Success: lr.NewStyle().Foreground(ColorSuccess),
		Warning: lr.NewStyle().Foreground(ColorWarning),
		Error:   lr.NewStyle().Foreground(ColorError).Bold(true),
		Info:    lr.NewStyle().Foreground(ColorPrimary),
		ID:      lr.NewStyle().Foreground(ColorMuted).Italic(true),
		Top:     lr.NewStyle().Foreground(ColorSuccess).Bold(true),
		Tier1:   lr.NewStyle().Foreground(ColorGold).Bold(true),
		Tier2:   lr.NewStyle().Foreground(ColorSilver).Bold(true),
		Tier3:   lr.NewStyle().Foreground(ColorBronze).Bold(true),
	}
}

// Tier returns the style of a leaderboard rank tier; tier 0 is unstyled.
func (s Styles) Tier(tier int) lipgloss.Style {
	switch tier {
	case 1:
		return s.Tier1
	case 2:
		return s.Tier2
	case 3:
		return s.Tier3
	default:
		return s.Bold.UnsetBold()
	}
}
