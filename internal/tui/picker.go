package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CaptShanks/verseprism/internal/history"
)

const pickerWidth = 75

var (
	pickerTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#89b4fa")).
		MarginBottom(1)
	pickerColumnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6c7086")).
		Bold(true)
	pickerSelectedStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("#313244")).
		Foreground(lipgloss.Color("#cdd6f4")).
		Bold(true)
	pickerFooterStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6c7086"))
	pickerFilterStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f9e2af"))

	keySearch = key.NewBinding(key.WithKeys("/"))
	keyQuit   = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyEsc    = key.NewBinding(key.WithKeys("esc"))
	keySelect = key.NewBinding(key.WithKeys("enter", " "))
	keyDown   = key.NewBinding(key.WithKeys("j", "down"))
	keyUp     = key.NewBinding(key.WithKeys("k", "up"))
	keyTop    = key.NewBinding(key.WithKeys("g"))
	keyBottom = key.NewBinding(key.WithKeys("G"))
)

// PickerModel is a TUI for selecting a history entry
type PickerModel struct {
	allEntries []history.Entry
	filtered   []history.Entry
	cursor     int
	selected   string // path of the chosen entry, empty if cancelled
	quitting   bool

	searching   bool
	searchQuery string
}

// NewPickerModel creates a new history picker
func NewPickerModel(entries []history.Entry) PickerModel {
	return PickerModel{
		allEntries: entries,
		filtered:   entries,
	}
}

// SelectedPath returns the path of the selected entry (empty if cancelled)
func (m PickerModel) SelectedPath() string {
	return m.selected
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

// filterEntries keeps entries matching every space-separated term, fzf style
func (m *PickerModel) filterEntries() {
	terms := strings.Fields(strings.ToLower(m.searchQuery))
	if len(terms) == 0 {
		m.filtered = m.allEntries
		return
	}

	var results []history.Entry
	for _, entry := range m.allEntries {
		searchable := strings.ToLower(strings.Join([]string{
			entry.Source,
			entry.Command,
			entry.Status,
			entry.Timestamp.Format("2006-01-02 15:04"),
			entry.Filename,
		}, " "))

		allMatch := true
		for _, term := range terms {
			if !strings.Contains(searchable, term) {
				allMatch = false
				break
			}
		}
		if allMatch {
			results = append(results, entry)
		}
	}

	m.filtered = results
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.searching {
		return m.updateSearch(keyMsg), nil
	}

	switch {
	case key.Matches(keyMsg, keySearch):
		m.searching = true

	case key.Matches(keyMsg, keyQuit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, keyEsc):
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.filterEntries()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, keySelect):
		if len(m.filtered) > 0 {
			m.selected = m.filtered[m.cursor].Path
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, keyDown):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, keyUp):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, keyTop):
		m.cursor = 0

	case key.Matches(keyMsg, keyBottom):
		m.cursor = max(len(m.filtered)-1, 0)
	}
	return m, nil
}

func (m PickerModel) updateSearch(msg tea.KeyMsg) PickerModel {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.searchQuery = ""
	case tea.KeyEnter:
		m.searching = false
		return m
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		m.searchQuery += string(msg.Runes)
	case tea.KeySpace:
		m.searchQuery += " "
	default:
		return m
	}
	m.filterEntries()
	return m
}

func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Select a history entry to view"))
	b.WriteString("\n\n")
	b.WriteString(pickerColumnStyle.Render("     TIMESTAMP            SOURCE               COMMAND   STATUS"))
	b.WriteString("\n")
	b.WriteString(pickerColumnStyle.Render(strings.Repeat("─", pickerWidth)))
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")).Italic(true)
		if m.searchQuery != "" {
			b.WriteString(empty.Render(fmt.Sprintf("  No results for '%s'", m.searchQuery)))
		} else {
			b.WriteString(empty.Render("  No history entries"))
		}
		b.WriteString("\n")
	}
	for i, entry := range m.filtered {
		b.WriteString(m.renderRow(i, entry))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.searching:
		b.WriteString(pickerFilterStyle.Bold(true).Render("/ "))
		b.WriteString(m.searchQuery)
		b.WriteString("█")
	case m.searchQuery != "":
		b.WriteString(pickerFilterStyle.Render("Filter: " + m.searchQuery))
		b.WriteString(pickerFooterStyle.Render(fmt.Sprintf("  (%d/%d)", len(m.filtered), len(m.allEntries))))
		b.WriteString("\n")
		b.WriteString(pickerFooterStyle.Render("j/k: navigate  enter: select  esc: clear filter  q: cancel"))
	default:
		b.WriteString(pickerFooterStyle.Render("j/k: navigate  /: search  enter: select  q: cancel"))
	}

	return b.String()
}

func (m PickerModel) renderRow(i int, entry history.Entry) string {
	cursor := "  "
	if i == m.cursor {
		cursor = "> "
	}

	status := ""
	statusStyle := lipgloss.NewStyle()
	switch entry.Status {
	case history.StatusSuccess:
		status = "[SUCCESS]"
		statusStyle = statusStyle.Foreground(lipgloss.Color("#a6e3a1"))
	case history.StatusFailed:
		status = "[FAILED]"
		statusStyle = statusStyle.Foreground(lipgloss.Color("#f38ba8"))
	}

	source := entry.Source
	if source == "" {
		source = "-"
	}
	source = history.TruncatePath(source, 18)

	base := fmt.Sprintf("%s%2d  %s  %-18s  %-8s  ",
		cursor,
		i+1,
		entry.Timestamp.Format("2006-01-02 15:04:05"),
		source,
		entry.Command,
	)

	if i != m.cursor {
		return base + statusStyle.Render(status)
	}
	line := base + status
	if w := lipgloss.Width(line); w < pickerWidth {
		line += strings.Repeat(" ", pickerWidth-w)
	}
	return pickerSelectedStyle.Render(line)
}

// RunPicker runs the interactive history picker and returns the selected path
func RunPicker(entries []history.Entry) (string, error) {
	finalModel, err := tea.NewProgram(NewPickerModel(entries)).Run()
	if err != nil {
		return "", err
	}
	return finalModel.(PickerModel).SelectedPath(), nil
}
