package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func mustParse(t *testing.T, input string) *Result {
	t.Helper()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	res, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	return res
}

func TestParseSingleVerseWithHeader(t *testing.T) {
	input := "# Text\n\nkathaṃ jñānam avāpto 'ti kathaṃ muktir bhaviṣyati \nvairāgyaṃ ca kathaṃ prāptam etad brūhi mama prabho // Avg_1.1\n"

	res := mustParse(t, input)

	if len(res.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(res.Verses))
	}
	want := "kathaṃ jñānam avāpto 'ti kathaṃ muktir bhaviṣyati\nvairāgyaṃ ca kathaṃ prāptam etad brūhi mama prabho"
	if res.Verses[0].Text != want {
		t.Errorf("Expected text %q, got %q", want, res.Verses[0].Text)
	}
	if res.Verses[0].Index != "1.1" {
		t.Errorf("Expected index '1.1', got '%s'", res.Verses[0].Index)
	}
	if !res.HeaderFound {
		t.Error("Expected HeaderFound to be true")
	}
	if res.ContentStart != 1 {
		t.Errorf("Expected ContentStart 1, got %d", res.ContentStart)
	}
}

func TestParseTwoVersesSeparatedByBlankLines(t *testing.T) {
	input := `# Text

first line a
first line b // Avg_1.1


second line a
second line b // Avg_1.2
`
	res := mustParse(t, input)

	if len(res.Verses) != 2 {
		t.Fatalf("Expected 2 verses, got %d", len(res.Verses))
	}
	for _, v := range res.Verses {
		if strings.HasPrefix(v.Text, "\n") || strings.HasSuffix(v.Text, "\n") {
			t.Errorf("Verse %s has leading or trailing blank line: %q", v.Index, v.Text)
		}
	}
	if res.Verses[1].Text != "second line a\nsecond line b" {
		t.Errorf("Unexpected second verse text: %q", res.Verses[1].Text)
	}
}

func TestParseFallbackWithoutHeader(t *testing.T) {
	input := `Some title
Some author

opening line
closing line // Avg_2.3
`
	res := mustParse(t, input)

	if res.HeaderFound {
		t.Error("Expected HeaderFound to be false")
	}
	if res.ContentStart != 3 {
		t.Errorf("Expected ContentStart 3, got %d", res.ContentStart)
	}
	if len(res.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(res.Verses))
	}
	if res.Verses[0].Index != "2.3" {
		t.Errorf("Expected index '2.3', got '%s'", res.Verses[0].Index)
	}
	if res.Verses[0].Text != "opening line\nclosing line" {
		t.Errorf("Expected the whole paragraph, got %q", res.Verses[0].Text)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyInput},
		{"whitespace", " \n\t\n", ErrEmptyInput},
		{"header only", "# Text\n\nno markers here\n", ErrNoMarker},
		{"no header no marker", "just\nsome\nprose\n", ErrNoMarker},
	}

	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Parse(tt.input)
			if err == nil {
				t.Fatalf("Expected error, got %d verses", len(res.Verses))
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseMarkersOnlyBeforeHeader(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	res, err := p.Parse("a // Avg_1.1\n# Text\nb\n")
	if err != nil {
		t.Fatalf("Expected empty result, got error: %v", err)
	}
	if res.Verses == nil || len(res.Verses) != 0 {
		t.Errorf("Expected an empty verse list, got %v", res.Verses)
	}
	if !res.HeaderFound {
		t.Error("Expected header to be found")
	}
	if res.ContentStart != 2 {
		t.Errorf("ContentStart = %d, want 2", res.ContentStart)
	}
	if res.DroppedLines != 1 {
		t.Errorf("DroppedLines = %d, want 1", res.DroppedLines)
	}
}

func TestParseDropsTrailingFragment(t *testing.T) {
	complete := "# Text\n\none // Avg_1.1\n\ntwo a\ntwo b // Avg_1.2\n"
	withFragment := complete + "\nthree a\n\nthree b\n"

	base := mustParse(t, complete)
	res := mustParse(t, withFragment)

	if len(res.Verses) != len(base.Verses) {
		t.Errorf("Expected %d verses, got %d", len(base.Verses), len(res.Verses))
	}
	if res.DroppedLines != 2 {
		t.Errorf("Expected 2 dropped lines, got %d", res.DroppedLines)
	}
}

func TestParseBlankLinePolicy(t *testing.T) {
	input := "# Text\n\n\n\nline a\n\nline b // Avg_1.1\n\n\n\nline c // Avg_1.2\n"

	res := mustParse(t, input)

	if len(res.Verses) != 2 {
		t.Fatalf("Expected 2 verses, got %d", len(res.Verses))
	}
	if res.Verses[0].Text != "line a\n\nline b" {
		t.Errorf("Expected internal blank line preserved, got %q", res.Verses[0].Text)
	}
	if res.Verses[1].Text != "line c" {
		t.Errorf("Expected no inter-verse blank lines, got %q", res.Verses[1].Text)
	}
}

func TestParseMarkerOnFirstContentLine(t *testing.T) {
	res := mustParse(t, "# Text\nonly line // Avg_3.14\n")

	if len(res.Verses) != 1 || res.Verses[0].Text != "only line" || res.Verses[0].Index != "3.14" {
		t.Errorf("Unexpected verses: %+v", res.Verses)
	}
}

func TestParseMalformedMarkersAreOrdinaryLines(t *testing.T) {
	input := `# Text

line a // Avg_1
line b // Avg_1.x
line c // Other_1.1
line d // Avg_1.2
`
	res := mustParse(t, input)

	if len(res.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(res.Verses))
	}
	want := "line a // Avg_1\nline b // Avg_1.x\nline c // Other_1.1\nline d"
	if res.Verses[0].Text != want {
		t.Errorf("Expected %q, got %q", want, res.Verses[0].Text)
	}
	if res.Verses[0].Index != "1.2" {
		t.Errorf("Expected index '1.2', got '%s'", res.Verses[0].Index)
	}
}

func TestParseBareMarkerWithoutText(t *testing.T) {
	res := mustParse(t, "# Text\n\n// Avg_1.1\n\nreal verse // Avg_1.2\n")

	if len(res.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(res.Verses))
	}
	if res.EmptyMarkers != 1 {
		t.Errorf("Expected 1 empty marker, got %d", res.EmptyMarkers)
	}
}

func TestParseMarkerWhitespaceVariants(t *testing.T) {
	tests := []struct {
		line  string
		index string
	}{
		{"text // Avg_1.5", "1.5"},
		{"text //Avg_1.5", "1.5"},
		{"text //\tAvg_10.25  ", "10.25"},
		{"text // Avg_1.5\r", "1.5"},
	}

	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		content, index, ok := p.MatchMarker(tt.line)
		if !ok {
			t.Errorf("MatchMarker(%q) did not match", tt.line)
			continue
		}
		if index != tt.index {
			t.Errorf("MatchMarker(%q) index = %q, want %q", tt.line, index, tt.index)
		}
		if strings.Contains(content, "//") {
			t.Errorf("MatchMarker(%q) content still has marker: %q", tt.line, content)
		}
	}
}

func TestParseCustomPrefix(t *testing.T) {
	verses, err := Parse("# Text\nyo mām paśyati // BhG_6.30\n", Config{Prefix: "BhG", StartMarker: "# Text"})
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if len(verses) != 1 || verses[0].Index != "6.30" {
		t.Errorf("Unexpected verses: %+v", verses)
	}

	_, err = Parse("# Text\nyo mām paśyati // BhG_6.30\n", DefaultConfig())
	if !errors.Is(err, ErrNoMarker) {
		t.Errorf("Expected ErrNoMarker with default prefix, got %v", err)
	}
}

func TestParsePrefixIsLiteral(t *testing.T) {
	verses, err := Parse("a // A.b_1.1\nc // AXb_1.2\n", Config{Prefix: "A.b"})
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if len(verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(verses))
	}
}

func TestNewInvalidConfig(t *testing.T) {
	for _, prefix := range []string{"", "A vg"} {
		if _, err := New(Config{Prefix: prefix}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("New(prefix %q): expected ErrInvalidConfig, got %v", prefix, err)
		}
	}
}

func TestParseCRLF(t *testing.T) {
	res := mustParse(t, "# Text\r\n\r\nline a\r\nline b // Avg_1.1\r\n")

	if len(res.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(res.Verses))
	}
	if res.Verses[0].Text != "line a\nline b" {
		t.Errorf("Unexpected text: %q", res.Verses[0].Text)
	}
}

func TestParsePreservesCodePoints(t *testing.T) {
	// precomposed "ā" and decomposed "ā" must both survive untouched
	line := "\u0101tman a\u0304tman \u1E5B\u1E63i"
	res := mustParse(t, "# Text\n"+line+" // Avg_1.1\n")

	if res.Verses[0].Text != line {
		t.Errorf("Expected %q, got %q", line, res.Verses[0].Text)
	}
}

func TestParseOrderFollowsSource(t *testing.T) {
	input := "# Text\nc // Avg_2.1\na // Avg_1.2\nb // Avg_1.1\n"
	res := mustParse(t, input)

	var got []string
	for _, v := range res.Verses {
		got = append(got, v.Index)
	}
	if strings.Join(got, ",") != "2.1,1.2,1.1" {
		t.Errorf("Expected source order, got %v", got)
	}
}

func TestParseConcurrentCallsAreIndependent(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			input := fmt.Sprintf("# Text\nverse %d // Avg_1.%d\n", n, n)
			res, err := p.Parse(input)
			if err != nil {
				errs <- err
				return
			}
			if len(res.Verses) != 1 || res.Verses[0].Index != fmt.Sprintf("1.%d", n) {
				errs <- fmt.Errorf("call %d got %+v", n, res.Verses)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestVerseNumbers(t *testing.T) {
	tests := []struct {
		index        string
		chapter, num int
		chOK, numOK  bool
	}{
		{"18.100", 18, 100, true, true},
		{"0.1", 0, 1, true, true},
		{"1.0", 1, 0, true, true},
		{"x", 0, 0, false, false},
		{"3.x", 3, 0, true, false},
	}
	for _, tt := range tests {
		v := Verse{Index: tt.index}
		c, cok := v.Chapter()
		n, nok := v.Number()
		if c != tt.chapter || cok != tt.chOK || n != tt.num || nok != tt.numOK {
			t.Errorf("%q: got %d,%v / %d,%v", tt.index, c, cok, n, nok)
		}
	}
}

func TestResultChapters(t *testing.T) {
	res := mustParse(t, "# Text\na // Avg_1.1\nb // Avg_1.2\nc // Avg_2.1\n")

	chapters := res.Chapters()
	if len(chapters) != 2 {
		t.Fatalf("Expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].Label != "1" || chapters[0].Verses != 2 || chapters[0].Last != "1.2" {
		t.Errorf("Unexpected first chapter: %+v", chapters[0])
	}
	if !strings.HasPrefix(res.Summary(), "3 verses in 2 chapters") {
		t.Errorf("Unexpected summary: %s", res.Summary())
	}
}
