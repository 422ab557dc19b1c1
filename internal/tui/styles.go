package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors - soft palette inspired by Tokyo Night / Catppuccin
var (
	indexColor    = lipgloss.Color("#e0af68") // Warm amber
	verseColor    = lipgloss.Color("#c0caf5") // Pale lavender
	warnColor     = lipgloss.Color("#f7768e") // Soft coral red
	okColor       = lipgloss.Color("#9ece6a") // Soft sage green
	selectedBg    = lipgloss.Color("#292e42") // Deep navy selection
	headerColor   = lipgloss.Color("#7aa2f7") // Soft periwinkle
	mutedColorVal = lipgloss.Color("#565f89") // Soft gray-blue
	textColor     = lipgloss.Color("#a9b1d6") // Soft lavender gray
)

// chapterPalette cycles per chapter so neighbouring chapters are distinguishable
var chapterPalette = []lipgloss.Color{
	"#7dcfff", // sky blue
	"#bb9af7", // lavender
	"#73daca", // teal
	"#ff9e64", // orange
	"#9ece6a", // sage
	"#f7768e", // coral
}

// Styles
var (
	appStyle = lipgloss.NewStyle().
		Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(headerColor).
		MarginBottom(1)

	summaryStyle = lipgloss.NewStyle().
		Foreground(textColor)

	indexStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(indexColor)

	verseTextStyle = lipgloss.NewStyle().
		Foreground(verseColor)

	warnStyle = lipgloss.NewStyle().
		Foreground(warnColor)

	mutedColor = lipgloss.NewStyle().
		Foreground(mutedColorVal)

	expandedIndicator  = lipgloss.NewStyle().Foreground(mutedColorVal).Render("▼")
	collapsedIndicator = lipgloss.NewStyle().Foreground(mutedColorVal).Render("▶")

	helpStyle = lipgloss.NewStyle().
		Foreground(mutedColorVal).
		MarginTop(1)

	searchStyle = lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true)

	matchStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("#3b4261")).
		Foreground(okColor).
		Bold(true)
)

// ChapterColor returns the palette color for the n-th chapter (zero based)
func ChapterColor(n int) lipgloss.Color {
	if n < 0 {
		n = -n
	}
	return chapterPalette[n%len(chapterPalette)]
}

// ChapterStyle returns a bold style in the n-th chapter color
func ChapterStyle(n int) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ChapterColor(n))
}

// ApplyTheme switches text colors for light terminals. Anything other than
// "light" keeps the dark palette.
func ApplyTheme(theme string) {
	if theme != "light" {
		return
	}
	verseTextStyle = verseTextStyle.Foreground(lipgloss.Color("#343b58"))
	summaryStyle = summaryStyle.Foreground(lipgloss.Color("#4c505e"))
	indexStyle = indexStyle.Foreground(lipgloss.Color("#8f5e15"))
	headerStyle = headerStyle.Foreground(lipgloss.Color("#34548a"))
}
