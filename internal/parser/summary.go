package parser

import (
	"fmt"
	"strings"
)

// Chapter summarizes the verses of one chapter
type Chapter struct {
	Label  string // chapter part of the index, as written in the source
	Verses int
	First  string
	Last   string
}

// Chapters groups verses by chapter in order of first appearance
func (r *Result) Chapters() []Chapter {
	var chapters []Chapter
	pos := make(map[string]int)

	for _, v := range r.Verses {
		label, _, _ := strings.Cut(v.Index, ".")
		i, ok := pos[label]
		if !ok {
			pos[label] = len(chapters)
			chapters = append(chapters, Chapter{Label: label, First: v.Index})
			i = len(chapters) - 1
		}
		chapters[i].Verses++
		chapters[i].Last = v.Index
	}

	return chapters
}

// Summary returns a one-line description of the result
func (r *Result) Summary() string {
	chapters := len(r.Chapters())
	s := fmt.Sprintf("%d verses in %d chapters", len(r.Verses), chapters)
	if r.DroppedLines > 0 {
		s += fmt.Sprintf(", %d trailing lines without marker", r.DroppedLines)
	}
	return s
}
