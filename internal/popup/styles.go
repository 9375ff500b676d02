package popup

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the popup.
type Styles struct {
	App          lipgloss.Style
	Title        lipgloss.Style
	Label        lipgloss.Style
	On           lipgloss.Style
	Off          lipgloss.Style
	Folder       lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	URL          lipgloss.Style
	Status       lipgloss.Style
	Error        lipgloss.Style
	HintKey      lipgloss.Style
	HintDesc     lipgloss.Style
}

// DefaultStyles returns the grayscale palette with a teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"}
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}
	alert := lipgloss.AdaptiveColor{Light: "#8A4A4A", Dark: "#AF7575"}

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Label: lipgloss.NewStyle().
			Foreground(subtle),

		On: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Off: lipgloss.NewStyle().
			Bold(true).
			Foreground(subtle),

		Folder: lipgloss.NewStyle().
			Foreground(primary),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		URL: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(3),

		Status: lipgloss.NewStyle().
			Foreground(subtle),

		Error: lipgloss.NewStyle().
			Foreground(alert),

		HintKey: lipgloss.NewStyle().
			Foreground(accent),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),
	}
}
