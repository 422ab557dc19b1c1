package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/CaptShanks/verseprism/internal/parser"
	"github.com/CaptShanks/verseprism/internal/updater"
)

const (
	headerHeight = 5 // title, source, summary, blank lines
	footerHeight = 3 // help text
	textIndent   = "      "
)

// Model is the interactive verse browser
type Model struct {
	result   *parser.Result
	origin   string
	chapters []parser.Chapter

	cursor           int
	expanded         map[int]bool
	viewport         viewport.Model
	ready            bool
	width            int
	height           int
	pendingG         bool  // 'g' pressed, waiting for the second 'g'
	verseLineStarts  []int // rendered line offset per displayed verse
	contentLineCount int

	searching     bool
	searchInput   textinput.Model
	searchQuery   string
	searchMatches []int // display indices into filteredVerses
	currentMatch  int

	chapterFilter int // index into chapters, -1 shows all

	currentVersion  string
	checkInterval   int
	updateAvailable string
}

// UpdateAvailableMsg is sent when an update check finds a newer version.
type UpdateAvailableMsg struct {
	Version string
}

// NewModel creates a browser over res. An empty version disables the update check.
func NewModel(res *parser.Result, origin, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		result:         res,
		origin:         origin,
		chapters:       res.Chapters(),
		expanded:       make(map[int]bool),
		searchInput:    ti,
		searchMatches:  []int{},
		chapterFilter:  -1,
		currentVersion: version,
	}
}

// WithUpdateInterval sets the number of days between update checks
func (m Model) WithUpdateInterval(days int) Model {
	m.checkInterval = days
	return m
}

// Init starts the background update check
func (m Model) Init() tea.Cmd {
	if m.currentVersion == "" || updater.IsSkipUpdateCheck() {
		return nil
	}
	return checkUpdateCmd(m.currentVersion, updater.UpdateCheckIntervalDays(m.checkInterval))
}

func checkUpdateCmd(version string, intervalDays int) tea.Cmd {
	return func() tea.Msg {
		status, err := updater.CheckLatestWithCache(version, intervalDays)
		if err != nil || !status.HasUpdate {
			return nil
		}
		return UpdateAvailableMsg{Version: status.Latest}
	}
}

// filteredVerses returns verse indices that pass the chapter filter
func (m *Model) filteredVerses() []int {
	verses := m.result.Verses
	indices := make([]int, 0, len(verses))
	if m.chapterFilter < 0 || m.chapterFilter >= len(m.chapters) {
		for i := range verses {
			indices = append(indices, i)
		}
		return indices
	}
	label := m.chapters[m.chapterFilter].Label
	for i, v := range verses {
		if chapterLabel(v) == label {
			indices = append(indices, i)
		}
	}
	return indices
}

// displayedVerses returns the verse indices currently on screen
func (m *Model) displayedVerses() []int {
	filtered := m.filteredVerses()
	if m.searchQuery == "" {
		return filtered
	}
	result := make([]int, 0, len(m.searchMatches))
	for _, displayIdx := range m.searchMatches {
		if displayIdx >= 0 && displayIdx < len(filtered) {
			result = append(result, filtered[displayIdx])
		}
	}
	return result
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case UpdateAvailableMsg:
		m.updateAvailable = msg.Version
		if m.ready && m.height > 0 {
			m.viewport.Height = m.height - headerHeight - footerHeight - 1
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		footer := footerHeight
		if m.updateAvailable != "" {
			footer++
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footer)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footer
		}
		m.updateViewportContent()

	case tea.KeyMsg:
		if !m.searching {
			return m.handleNormalKey(msg)
		}
		switch msg.String() {
		case "enter":
			m.searching = false
			m.searchInput.Blur()
			m.searchQuery = m.searchInput.Value()
			m.performSearch()
			m.clampCursor()
			m.updateViewportContent()
		case "esc":
			m.searching = false
			m.searchInput.Blur()
			m.clearSearch()
		default:
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.searchQuery = m.searchInput.Value()
			m.performSearch()
			m.clampCursor()
			m.updateViewportContent()
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

type normalKeyHandler func(m Model) (Model, tea.Cmd)

var normalKeyHandlers = map[string]normalKeyHandler{
	"q":         func(m Model) (Model, tea.Cmd) { return m, tea.Quit },
	"ctrl+c":    func(m Model) (Model, tea.Cmd) { return m, tea.Quit },
	"esc":       handleKeyEsc,
	"up":        handleKeyUp,
	"k":         handleKeyUp,
	"down":      handleKeyDown,
	"j":         handleKeyDown,
	"enter":     handleKeyToggle,
	" ":         handleKeyToggle,
	"l":         handleKeyExpandCurrent,
	"right":     handleKeyExpandCurrent,
	"h":         handleKeyCollapseCurrent,
	"left":      handleKeyCollapseCurrent,
	"backspace": handleKeyCollapseCurrent,
	"e":         handleKeyExpandAll,
	"c":         handleKeyCollapseAll,
	"f":         handleKeyChapterFilter,
	"/":         handleKeySearch,
	"n":         handleKeyNextMatch,
	"N":         handleKeyPrevMatch,
	"d":         handleKeyHalfPageDown,
	"ctrl+d":    handleKeyHalfPageDown,
	"u":         handleKeyHalfPageUp,
	"ctrl+u":    handleKeyHalfPageUp,
	"g":         handleKeyG,
	"G":         handleKeyBottom,
	"pgup":      handleKeyPgUp,
	"pgdown":    handleKeyPgDown,
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "g" {
		m.pendingG = false
	}
	if handler, ok := normalKeyHandlers[key]; ok {
		return handler(m)
	}
	return m, nil
}

func handleKeyUp(m Model) (Model, tea.Cmd) {
	if m.cursor > 0 {
		m.cursor--
		m.updateViewportContent()
		m.ensureCursorVisible()
	} else {
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	}
	return m, nil
}

func handleKeyDown(m Model) (Model, tea.Cmd) {
	if m.cursor < len(m.displayedVerses())-1 {
		m.cursor++
		m.updateViewportContent()
		m.ensureCursorVisible()
	} else {
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	}
	return m, nil
}

func handleKeyToggle(m Model) (Model, tea.Cmd) {
	if idx, ok := m.currentVerse(); ok {
		m.expanded[idx] = !m.expanded[idx]
	}
	m.updateViewportContent()
	m.scrollForExpanded()
	return m, nil
}

func handleKeyExpandCurrent(m Model) (Model, tea.Cmd) {
	if idx, ok := m.currentVerse(); ok {
		m.expanded[idx] = true
	}
	m.updateViewportContent()
	m.scrollForExpanded()
	return m, nil
}

func handleKeyCollapseCurrent(m Model) (Model, tea.Cmd) {
	if idx, ok := m.currentVerse(); ok {
		m.expanded[idx] = false
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
	return m, nil
}

func handleKeyExpandAll(m Model) (Model, tea.Cmd) {
	m.setAllExpanded(true)
	return m, nil
}

func handleKeyCollapseAll(m Model) (Model, tea.Cmd) {
	m.setAllExpanded(false)
	return m, nil
}

func handleKeyNextMatch(m Model) (Model, tea.Cmd) {
	m.stepMatch(1)
	return m, nil
}

func handleKeyPrevMatch(m Model) (Model, tea.Cmd) {
	m.stepMatch(-1)
	return m, nil
}

func handleKeyPgUp(m Model) (Model, tea.Cmd) {
	m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
	return m, nil
}

func handleKeyPgDown(m Model) (Model, tea.Cmd) {
	m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
	return m, nil
}

// handleKeyChapterFilter cycles all -> first chapter -> ... -> last chapter -> all
func handleKeyChapterFilter(m Model) (Model, tea.Cmd) {
	if len(m.chapters) == 0 {
		return m, nil
	}
	m.chapterFilter++
	if m.chapterFilter >= len(m.chapters) {
		m.chapterFilter = -1
	}
	m.cursor = 0
	if m.searchQuery != "" {
		m.performSearch()
	}
	m.updateViewportContent()
	m.viewport.GotoTop()
	return m, nil
}

func handleKeyEsc(m Model) (Model, tea.Cmd) {
	switch {
	case m.searchQuery != "":
		m.clearSearch()
	case m.chapterFilter >= 0:
		m.chapterFilter = -1
		m.clampCursor()
		m.updateViewportContent()
	default:
		return m, tea.Quit
	}
	return m, nil
}

func handleKeySearch(m Model) (Model, tea.Cmd) {
	m.searching = true
	m.searchInput.Focus()
	return m, textinput.Blink
}

func handleKeyHalfPageDown(m Model) (Model, tea.Cmd) {
	m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
	return m, nil
}

func handleKeyHalfPageUp(m Model) (Model, tea.Cmd) {
	offset := m.viewport.YOffset - m.viewport.Height/2
	if offset < 0 {
		offset = 0
	}
	m.viewport.SetYOffset(offset)
	return m, nil
}

func handleKeyG(m Model) (Model, tea.Cmd) {
	if m.pendingG {
		m.cursor = 0
		m.updateViewportContent()
		m.viewport.GotoTop()
		m.pendingG = false
	} else {
		m.pendingG = true
	}
	return m, nil
}

func handleKeyBottom(m Model) (Model, tea.Cmd) {
	if n := len(m.displayedVerses()); n > 0 {
		m.cursor = n - 1
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
	return m, nil
}

func (m *Model) currentVerse() (int, bool) {
	displayed := m.displayedVerses()
	if m.cursor < 0 || m.cursor >= len(displayed) {
		return 0, false
	}
	return displayed[m.cursor], true
}

func (m *Model) setAllExpanded(expanded bool) {
	for _, idx := range m.displayedVerses() {
		m.expanded[idx] = expanded
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
}

func (m *Model) clampCursor() {
	n := len(m.displayedVerses())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// stepMatch moves the cursor dir matches forward, wrapping around
func (m *Model) stepMatch(dir int) {
	if m.searchQuery == "" || len(m.searchMatches) == 0 {
		return
	}
	n := len(m.displayedVerses())
	m.currentMatch = ((m.currentMatch+dir)%n + n) % n
	m.cursor = m.currentMatch
	m.updateViewportContent()
	m.ensureCursorVisible()
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchMatches = []int{}
	m.currentMatch = 0
	m.searchInput.SetValue("")
	m.clampCursor()
	m.updateViewportContent()
}

// fuzzyMatch returns true if all characters in query appear in text in order
// (not necessarily consecutive). E.g. "jñm" matches "jñānam".
func fuzzyMatch(text, query string) bool {
	t := []rune(strings.ToLower(text))
	q := []rune(strings.ToLower(query))
	if len(q) == 0 {
		return true
	}
	qi := 0
	for i := 0; i < len(t) && qi < len(q); i++ {
		if t[i] == q[qi] {
			qi++
		}
	}
	return qi == len(q)
}

func (m *Model) performSearch() {
	m.searchMatches = []int{}
	m.currentMatch = 0

	terms := strings.Fields(strings.ToLower(m.searchQuery))
	if len(terms) == 0 {
		return
	}

	for displayIdx, verseIdx := range m.filteredVerses() {
		v := m.result.Verses[verseIdx]
		searchable := v.Index + " " + v.Text

		allMatch := true
		for _, term := range terms {
			if !fuzzyMatch(searchable, term) {
				allMatch = false
				break
			}
		}
		if allMatch {
			m.searchMatches = append(m.searchMatches, displayIdx)
		}
	}

	if len(m.searchMatches) > 0 {
		m.cursor = 0
	}
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderVerses())
}

func (m *Model) ensureCursorVisible() {
	if !m.ready || m.cursor < 0 || m.cursor >= len(m.verseLineStarts) {
		return
	}

	line := m.verseLineStarts[m.cursor]
	top := m.viewport.YOffset
	bottom := top + m.viewport.Height - 1

	if line < top {
		m.viewport.SetYOffset(line)
	} else if line > bottom {
		offset := line - m.viewport.Height + 1
		if offset < 0 {
			offset = 0
		}
		m.viewport.SetYOffset(offset)
	}
}

// scrollForExpanded keeps an expanded verse fully in view when it fits
func (m *Model) scrollForExpanded() {
	idx, ok := m.currentVerse()
	if !m.ready || !ok || m.cursor >= len(m.verseLineStarts) {
		return
	}
	if m.expanded[idx] {
		start := m.verseLineStarts[m.cursor]
		end := m.contentLineCount
		if m.cursor+1 < len(m.verseLineStarts) {
			end = m.verseLineStarts[m.cursor+1]
		}
		if end > m.viewport.YOffset+m.viewport.Height-1 {
			m.viewport.SetYOffset(start)
			return
		}
	}
	m.ensureCursorVisible()
}

func (m *Model) renderVerses() string {
	var b strings.Builder
	lineCount := 0

	displayed := m.displayedVerses()
	m.verseLineStarts = make([]int, len(displayed))

	if len(displayed) == 0 {
		if m.searchQuery != "" {
			b.WriteString(mutedColor.Render(fmt.Sprintf("No verses match search '%s'. Press Esc to clear.", m.searchQuery)))
		} else {
			b.WriteString(mutedColor.Render("No verses to show."))
		}
		b.WriteString("\n")
		return b.String()
	}

	chapterOrder := make(map[string]int, len(m.chapters))
	for i, c := range m.chapters {
		chapterOrder[c.Label] = i
	}

	wrapWidth := m.viewport.Width - len(textIndent)
	for displayIdx, verseIdx := range displayed {
		m.verseLineStarts[displayIdx] = lineCount
		v := m.result.Verses[verseIdx]
		expanded := m.expanded[verseIdx]

		b.WriteString(m.renderVerseLine(v, chapterOrder[chapterLabel(v)], expanded, displayIdx == m.cursor))
		b.WriteString("\n")
		lineCount++

		if expanded {
			for _, line := range strings.Split(wrapText(v.Text, wrapWidth), "\n") {
				b.WriteString(textIndent)
				b.WriteString(verseTextStyle.Render(line))
				b.WriteString("\n")
				lineCount++
			}
			b.WriteString("\n")
			lineCount++
		}
	}
	m.contentLineCount = lineCount

	b.WriteString("\n")
	b.WriteString(mutedColor.Render("── End of Text ──"))
	b.WriteString("\n")

	// Padding so the last verse can scroll fully into view
	for i := 0; i < m.viewport.Height; i++ {
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderVerseLine(v parser.Verse, chapter int, expanded, selected bool) string {
	indicator := "▶"
	if expanded {
		indicator = "▼"
	}

	preview, _, multi := strings.Cut(v.Text, "\n")
	if multi {
		preview += " …"
	}

	if selected {
		line := fmt.Sprintf("%s %-7s %s", indicator, v.Index, preview)
		target := m.width - 4
		if w := lipgloss.Width(line); target > 0 && w > target {
			line = truncateRunes(line, target)
		} else if target > 0 && w < target {
			line += strings.Repeat(" ", target-w)
		}
		return lipgloss.NewStyle().
			Background(selectedBg).
			Foreground(ChapterColor(chapter)).
			Bold(true).
			Render(line)
	}

	var b strings.Builder
	if expanded {
		b.WriteString(expandedIndicator)
	} else {
		b.WriteString(collapsedIndicator)
	}
	b.WriteString(" ")
	b.WriteString(ChapterStyle(chapter).Render(fmt.Sprintf("%-7s", v.Index)))
	b.WriteString(" ")

	if limit := m.width - 14; limit > 0 {
		preview = truncateRunes(preview, limit)
	}
	if m.searchQuery != "" {
		b.WriteString(highlightMatch(preview, m.searchQuery))
	} else {
		b.WriteString(mutedColor.Render(preview))
	}
	return b.String()
}

func highlightMatch(text, query string) string {
	lower := strings.ToLower(text)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		idx := strings.Index(lower, term)
		if idx < 0 || len(lower) != len(text) {
			continue
		}
		return mutedColor.Render(text[:idx]) + matchStyle.Render(text[idx:idx+len(term)]) + mutedColor.Render(text[idx+len(term):])
	}
	return mutedColor.Render(text)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

func wrapText(s string, width int) string {
	if width <= 10 {
		return s
	}
	return wordwrap.String(s, width)
}

func (m Model) viewHeader() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if m.origin != "" {
		b.WriteString(mutedColor.Render("  " + m.origin))
	}
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render("  " + m.result.Summary()))
	b.WriteString("\n\n")
	return b.String()
}

func (m Model) viewFilterStatus() string {
	if m.chapterFilter < 0 || m.chapterFilter >= len(m.chapters) {
		return ""
	}
	c := m.chapters[m.chapterFilter]
	return searchStyle.Render(fmt.Sprintf("Chapter %s (%d verses) • f: next • Esc: all", c.Label, c.Verses)) + "\n\n"
}

func (m Model) viewSearchBar() string {
	if m.searching {
		return searchStyle.Render("Search: ") + m.searchInput.View() + "\n\n"
	}
	if m.searchQuery != "" {
		return searchStyle.Render(fmt.Sprintf("Search: %q (%d/%d matches)", m.searchQuery, m.currentMatch+1, len(m.searchMatches))) + "\n\n"
	}
	return ""
}

func (m Model) viewUpdateNudge() string {
	if m.updateAvailable == "" {
		return ""
	}
	nudge := lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Italic(true)
	return "\n" + nudge.Render(fmt.Sprintf("Update available: v%s. Run 'verseprism upgrade' to update.", m.updateAvailable))
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString(m.viewFilterStatus())
	b.WriteString(m.viewSearchBar())
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k: navigate • l/h: expand/collapse • e/c: all • d/u: scroll • gg/G: top/bottom • /: search • n/N: next/prev • f: chapter • q: quit"))
	b.WriteString(m.viewUpdateNudge())
	return appStyle.Render(b.String())
}

// Run starts the browser in the alternate screen
func Run(res *parser.Result, origin, version string, updateIntervalDays int) error {
	m := NewModel(res, origin, version).WithUpdateInterval(updateIntervalDays)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
