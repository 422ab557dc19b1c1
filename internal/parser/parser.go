package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	// DefaultPrefix is the marker prefix used by the GRETIL Ashtavakra Gita text
	DefaultPrefix = "Avg"
	// DefaultStartMarker is the line that ends the front matter
	DefaultStartMarker = "# Text"
)

// Verse is a single verse: its text and its "<chapter>.<verse>" index
type Verse struct {
	Text  string `json:"text"`
	Index string `json:"index"`
}

// Chapter returns the chapter part of the index. ok is false when that part
// is not a decimal number.
func (v Verse) Chapter() (n int, ok bool) {
	ch, _, _ := strings.Cut(v.Index, ".")
	return atoi(ch)
}

// Number returns the verse part of the index. ok is false when the index has
// no verse part or it is not a decimal number.
func (v Verse) Number() (n int, ok bool) {
	_, vs, found := strings.Cut(v.Index, ".")
	if !found {
		return 0, false
	}
	return atoi(vs)
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Result is a parsed corpus
type Result struct {
	Verses       []Verse
	ContentStart int  // 0-based line where verse content begins
	HeaderFound  bool // false when the start marker was missing and the first verse was used
	DroppedLines int  // non-blank lines of an unterminated trailing fragment
	EmptyMarkers int  // marker lines that closed an empty verse
}

// Config selects the marker convention of a corpus
type Config struct {
	// Prefix is the literal before the underscore in "// Avg_1.1"
	Prefix string
	// StartMarker is the line after which verse content starts. Empty disables the search.
	StartMarker string
}

// DefaultConfig returns the configuration for the GRETIL Ashtavakra Gita
func DefaultConfig() Config {
	return Config{
		Prefix:      DefaultPrefix,
		StartMarker: DefaultStartMarker,
	}
}

// Parser splits text into verses. It holds no mutable state and is safe for concurrent use.
type Parser struct {
	cfg    Config
	marker *regexp.Regexp
}

// New validates cfg and compiles its marker pattern
func New(cfg Config) (*Parser, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("%w: empty marker prefix", ErrInvalidConfig)
	}
	if strings.ContainsFunc(cfg.Prefix, unicode.IsSpace) {
		return nil, fmt.Errorf("%w: marker prefix %q contains whitespace", ErrInvalidConfig, cfg.Prefix)
	}
	cfg.StartMarker = strings.TrimSpace(cfg.StartMarker)

	// Content before "//" is group 1, the "<digits>.<digits>" index is group 2.
	marker, err := regexp.Compile(`^(.*?)//\s*` + regexp.QuoteMeta(cfg.Prefix) + `_([0-9]+\.[0-9]+)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &Parser{cfg: cfg, marker: marker}, nil
}

// Config returns the configuration the parser was built with
func (p *Parser) Config() Config {
	return p.cfg
}

// Parse parses input with cfg and returns the verses in source order
func Parse(input string, cfg Config) ([]Verse, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	res, err := p.Parse(input)
	if err != nil {
		return nil, err
	}
	return res.Verses, nil
}

// Parse splits input into verses.
// It fails only if input is blank or carries no verse marker at all.
func (p *Parser) Parse(input string) (*Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, newParseError(ErrEmptyInput, "")
	}

	lines := splitLines(input)

	start, headerFound, err := p.locateContentStart(lines)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Verses:       []Verse{},
		ContentStart: start,
		HeaderFound:  headerFound,
	}
	p.group(res, lines[start:])

	return res, nil
}

// MatchMarker reports whether line ends a verse. It returns the line with the
// marker stripped and the captured index.
func (p *Parser) MatchMarker(line string) (content, index string, ok bool) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	match := p.marker.FindStringSubmatch(line)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

// splitLines splits on "\n", ignoring one trailing newline and a "\r" per line
func splitLines(input string) []string {
	input = strings.TrimSuffix(input, "\n")
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// locateContentStart returns the first content line. Without a start marker,
// content begins at the paragraph holding the first verse marker.
// A start marker followed by no verse marker yields an empty content range.
func (p *Parser) locateContentStart(lines []string) (int, bool, error) {
	first := p.firstMarker(lines)
	if first < 0 {
		return 0, false, newParseError(ErrNoMarker, "")
	}

	if p.cfg.StartMarker != "" {
		for i, line := range lines {
			if strings.TrimSpace(line) == p.cfg.StartMarker {
				return i + 1, true, nil
			}
		}
	}

	start := first
	for start > 0 && !isBlank(lines[start-1]) {
		start--
	}
	return start, false, nil
}

func (p *Parser) firstMarker(lines []string) int {
	for i, line := range lines {
		if _, _, ok := p.MatchMarker(line); ok {
			return i
		}
	}
	return -1
}

// group accumulates lines until a marker line closes the verse
func (p *Parser) group(res *Result, lines []string) {
	var buf []string

	for _, line := range lines {
		content, index, ok := p.MatchMarker(line)
		if ok {
			if !isBlank(content) {
				buf = append(buf, trimRight(content))
			}
			text := strings.TrimSpace(strings.Join(buf, "\n"))
			buf = buf[:0]
			if text == "" {
				res.EmptyMarkers++
				continue
			}
			res.Verses = append(res.Verses, Verse{Text: text, Index: index})
			continue
		}

		// Blank lines between verses
		if len(buf) == 0 && isBlank(line) {
			continue
		}
		buf = append(buf, trimRight(line))
	}

	for _, line := range buf {
		if !isBlank(line) {
			res.DroppedLines++
		}
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
