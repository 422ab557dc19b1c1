package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/CaptShanks/verseprism/internal/parser"
)

func init() {
	// Force color output even when not a TTY (for piping)
	lipgloss.SetColorProfile(termenv.TrueColor)
}

const title = "Verse-Prism - Verse Viewer"

// PrintVerses writes the verses with colors to w (non-interactive mode)
func PrintVerses(w io.Writer, res *parser.Result, origin string) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if origin != "" {
		b.WriteString(mutedColor.Render("Source: " + origin))
		b.WriteString("\n")
	}
	b.WriteString(summaryStyle.Render(res.Summary()))
	b.WriteString("\n")
	if !res.HeaderFound && len(res.Verses) > 0 {
		b.WriteString(warnStyle.Render("Start marker not found; content starts at the first marked paragraph"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	chapter := -1
	label := ""
	for _, v := range res.Verses {
		if l := chapterLabel(v); chapter < 0 || l != label {
			chapter++
			label = l
			b.WriteString(ChapterStyle(chapter).Render("Chapter " + label))
			b.WriteString("\n")
		}
		printVerse(&b, v)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func printVerse(b *strings.Builder, v parser.Verse) {
	fmt.Fprintf(b, "  %s\n", indexStyle.Render(v.Index))
	for _, line := range strings.Split(v.Text, "\n") {
		b.WriteString("    ")
		b.WriteString(verseTextStyle.Render(line))
		b.WriteString("\n")
	}
}

func chapterLabel(v parser.Verse) string {
	label, _, _ := strings.Cut(v.Index, ".")
	return label
}
