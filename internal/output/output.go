// Package output serializes verses to JSON or SQLite. File writes go through
// a temp file and a rename under an exclusive lock, so a destination is either
// fully replaced or left untouched.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/CaptShanks/verseprism/internal/parser"
)

// Format is an output encoding
type Format string

const (
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// StdoutPath selects standard output as destination
const StdoutPath = "-"

var (
	// ErrUnknownFormat is returned for unsupported formats
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrStdoutFormat is returned when a binary format targets stdout
	ErrStdoutFormat = errors.New("sqlite output cannot be written to stdout")
)

// ParseFormat validates a format name. Empty means "decide from the path".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks sqlite for .db/.sqlite/.sqlite3 files and json otherwise
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Meta describes where verses came from. It is stored alongside SQLite exports.
type Meta struct {
	Origin string
	Hash   string
	Prefix string
}

// WriteError reports a destination that could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// EncodeJSON writes verses as an indented JSON array. Non-ASCII text and
// HTML-significant characters are written as-is.
func EncodeJSON(w io.Writer, verses []parser.Verse) error {
	if verses == nil {
		verses = []parser.Verse{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(verses)
}

// DecodeJSON reads an array written by EncodeJSON
func DecodeJSON(r io.Reader) ([]parser.Verse, error) {
	var verses []parser.Verse
	if err := json.NewDecoder(r).Decode(&verses); err != nil {
		return nil, fmt.Errorf("decode verses: %w", err)
	}
	return verses, nil
}

// Write stores verses at path. With an empty format the path extension decides.
// Path "-" writes JSON to stdout.
func Write(path string, format Format, verses []parser.Verse, meta Meta) (Format, error) {
	if format == "" {
		format = FormatFromPath(path)
	}

	if path == StdoutPath {
		if format != FormatJSON {
			return format, ErrStdoutFormat
		}
		return format, EncodeJSON(os.Stdout, verses)
	}

	var err error
	switch format {
	case FormatJSON:
		err = writeAtomic(path, func(tmp *os.File) error {
			if err := EncodeJSON(tmp, verses); err != nil {
				return err
			}
			return tmp.Sync()
		})
	case FormatSQLite:
		err = writeAtomic(path, func(tmp *os.File) error {
			// The database is built by path; close our handle first.
			if err := tmp.Close(); err != nil {
				return err
			}
			return writeSQLite(tmp.Name(), verses, meta)
		})
	default:
		return format, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return format, &WriteError{Path: path, Err: err}
	}
	return format, nil
}

// writeAtomic fills a temp file next to path and renames it into place while
// holding path+".lock".
func writeAtomic(path string, fill func(tmp *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock output: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	// fill may already have closed tmp; a second Close only reports os.ErrClosed.
	if err := tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
