// Package history keeps a copy of every corpus processed by verseprism so a
// run can be replayed later without fetching the source again.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// HistoryDir is the directory name for storing history files
	HistoryDir = ".verseprism"

	// HomeEnv overrides the history directory
	HomeEnv = "VERSEPRISM_HOME"

	// StatusSuccess indicates the run succeeded
	StatusSuccess = "success"
	// StatusFailed indicates the run failed
	StatusFailed = "failed"

	// CommandExtract, CommandView and CommandStats are the recorded commands
	CommandExtract = "extract"
	CommandView    = "view"
	CommandStats   = "stats"

	timestampLayout = "2006-01-02_15-04-05"
	headerRule      = "================================================================================"
)

// MaxHistoryFiles is the number of newest entries CleanupOldFiles keeps
var MaxHistoryFiles = 50

// Dir, when set, takes precedence over VERSEPRISM_HOME and ~/.verseprism
var Dir string

var knownCommands = map[string]bool{
	CommandExtract: true,
	CommandView:    true,
	CommandStats:   true,
}

// ErrNoHeader is returned by ReadEntry for files without a history header
var ErrNoHeader = errors.New("history file has no header")

// Entry represents a history file entry
type Entry struct {
	Path      string
	Timestamp time.Time
	Source    string // sanitized source label
	Command   string // extract, view, stats
	Status    string // success, failed or empty
	Filename  string
}

// Record describes the run written into a history header
type Record struct {
	Command     string
	Origin      string
	Hash        string
	Prefix      string
	StartMarker string
}

// GetHistoryDir returns the path to the history directory
func GetHistoryDir() (string, error) {
	if Dir != "" {
		return Dir, nil
	}
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, HistoryDir), nil
}

// EnsureHistoryDir creates the history directory if it doesn't exist
func EnsureHistoryDir() (string, error) {
	dir, err := GetHistoryDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	return dir, nil
}

// GenerateFilename creates a filename for a history entry
// Format: YYYY-MM-DD_HH-MM-SS_<source>_<command>.txt
func GenerateFilename(now time.Time, origin, command string) string {
	return fmt.Sprintf("%s_%s_%s.txt",
		now.Format(timestampLayout),
		SourceLabel(origin),
		command,
	)
}

// SourceLabel turns a URL, path or "inline" into a short filename-safe label.
func SourceLabel(origin string) string {
	name := strings.TrimSpace(origin)
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return sanitizeLabel(name)
}

// sanitizeLabel makes a label safe for filenames. Underscores are filename
// delimiters, so they must be replaced.
func sanitizeLabel(name string) string {
	replacer := strings.NewReplacer(
		"_", "-",
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		".", "-",
		"?", "-",
		"&", "-",
		"=", "-",
	)
	name = replacer.Replace(name)

	if r := []rune(name); len(r) > 30 {
		name = string(r[:30])
	}
	if name == "" {
		name = "unknown"
	}

	// A label equal to a command name would confuse parseFilename
	if knownCommands[name] {
		name = name + "-src"
	}

	return name
}

// CreateHistoryFile writes header and source text to a new history file and
// returns its path
func CreateHistoryFile(rec Record, content string) (string, error) {
	dir, err := EnsureHistoryDir()
	if err != nil {
		return "", err
	}

	now := time.Now()
	path := filepath.Join(dir, GenerateFilename(now, rec.Origin, rec.Command))

	data := CreateHistoryHeader(now, rec) + content
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "", fmt.Errorf("failed to write history file: %w", err)
	}

	return path, nil
}

// UpdateFilenameWithStatus renames a history file to include the status
// e.g., 2024-01-09_10-30-00_gita-txt_extract.txt -> 2024-01-09_10-30-00_gita-txt_extract_success.txt
func UpdateFilenameWithStatus(oldPath string, status string) (string, error) {
	dir := filepath.Dir(oldPath)
	base := strings.TrimSuffix(filepath.Base(oldPath), ".txt")

	newPath := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", base, status))
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("failed to rename history file: %w", err)
	}

	return newPath, nil
}

// ListEntries returns all history entries, sorted by timestamp (newest first)
func ListEntries(filterCommand string) ([]Entry, error) {
	dir, err := GetHistoryDir()
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".txt") {
			continue
		}

		entry, err := parseFilename(f.Name())
		if err != nil {
			continue // not ours
		}

		entry.Path = filepath.Join(dir, f.Name())
		entry.Filename = f.Name()

		if filterCommand != "" && entry.Command != filterCommand {
			continue
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Filename > entries[j].Filename
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}

// CleanupOldFiles removes all but the MaxHistoryFiles newest entries and
// returns how many were removed
func CleanupOldFiles() (int, error) {
	if MaxHistoryFiles <= 0 {
		return 0, nil
	}
	entries, err := ListEntries("")
	if err != nil {
		return 0, err
	}
	if len(entries) <= MaxHistoryFiles {
		return 0, nil
	}

	removed := 0
	var errs []error
	for _, e := range entries[MaxHistoryFiles:] {
		if err := os.Remove(e.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Clear removes every history entry and returns how many were removed
func Clear() (int, error) {
	entries, err := ListEntries("")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Filename, err)
		}
		removed++
	}
	return removed, nil
}

// parseFilename parses a history filename into an Entry
// Format: YYYY-MM-DD_HH-MM-SS_<source>_<command>[_<status>].txt
func parseFilename(filename string) (Entry, error) {
	base := strings.TrimSuffix(filename, ".txt")
	parts := strings.Split(base, "_")

	if len(parts) < 4 || len(parts) > 5 {
		return Entry{}, fmt.Errorf("invalid filename format")
	}

	timestamp, err := time.ParseInLocation(timestampLayout, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	entry := Entry{
		Timestamp: timestamp,
		Source:    parts[2],
		Command:   parts[3],
	}
	if len(parts) == 5 {
		entry.Status = parts[4]
	}

	if !knownCommands[entry.Command] {
		return Entry{}, fmt.Errorf("unknown command: %s", entry.Command)
	}

	return entry, nil
}

// TruncatePath shortens s to max runes, keeping the tail
func TruncatePath(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max < 4 {
		return s
	}
	return "..." + string(r[len(r)-(max-3):])
}

// CreateHistoryHeader creates a header for the history file
func CreateHistoryHeader(now time.Time, rec Record) string {
	return fmt.Sprintf(`%s
Verse-Prism History Log
%s
Timestamp: %s
Command:   %s
Source:    %s
BLAKE3:    %s
Prefix:    %s
Start:     %s
%s

`, headerRule, headerRule,
		now.Format("2006-01-02 15:04:05 MST"),
		rec.Command,
		rec.Origin,
		rec.Hash,
		rec.Prefix,
		rec.StartMarker,
		headerRule,
	)
}

// ReadEntry returns the header block and the stored source text of a history file
func ReadEntry(path string) (header, body string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read history file: %w", err)
	}
	return SplitEntry(string(data))
}

// SplitEntry separates a history header from the content that follows it.
// The header ends at the third rule line and one blank line.
func SplitEntry(data string) (header, body string, err error) {
	rest := data
	for i := 0; i < 3; i++ {
		idx := strings.Index(rest, headerRule+"\n")
		if idx < 0 {
			return "", "", ErrNoHeader
		}
		rest = rest[idx+len(headerRule)+1:]
	}
	rest = strings.TrimPrefix(rest, "\n")

	header = strings.TrimRight(data[:len(data)-len(rest)], "\n")
	return header, rest, nil
}

// HeaderField returns the value of a "Name: value" line from a header
func HeaderField(header, name string) string {
	value, _ := LookupHeaderField(header, name)
	return value
}

// LookupHeaderField is HeaderField that also reports whether the line exists.
// Headers written before a field was introduced lack its line.
func LookupHeaderField(header, name string) (string, bool) {
	for _, line := range strings.Split(header, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == name {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
