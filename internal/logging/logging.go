// Package logging provides structured logging on log/slog.
// Logs go to stderr so that stdout stays free for extracted data.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for the run ID.
	RunIDKey ContextKey = "run_id"
)

var defaultLogger *slog.Logger

func init() {
	Init(LevelWarn, FormatText, os.Stderr)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ParseFormat maps "text" and "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init replaces the global logger.
func Init(level Level, format Format, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// WithRunID tags ctx with a fresh run ID.
func WithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, RunIDKey, uuid.NewString())
}

// RunID returns the run ID carried by ctx, or "".
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns the global logger with the run ID attached.
func FromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	return logger
}

// SourceLoaded logs a successful retrieval.
func SourceLoaded(ctx context.Context, kind, origin string, size int, hash string) {
	FromContext(ctx).Info("source_loaded",
		"kind", kind,
		"origin", origin,
		"bytes", size,
		"blake3", hash,
	)
}

// ParseCompleted logs the outcome of a parse.
func ParseCompleted(ctx context.Context, verses, contentStart int, headerFound bool, dropped int) {
	logger := FromContext(ctx)
	logger.Info("parse_completed",
		"verses", verses,
		"content_start", contentStart,
		"header_found", headerFound,
	)
	if !headerFound {
		logger.Warn("start marker not found, content starts at first verse", "line", contentStart+1)
	}
	if dropped > 0 {
		logger.Warn("trailing lines without verse marker dropped", "lines", dropped)
	}
}

// OutputWritten logs a written destination.
func OutputWritten(ctx context.Context, path, format string, verses int, duration time.Duration) {
	FromContext(ctx).Info("output_written",
		"path", path,
		"format", format,
		"verses", verses,
		"duration_ms", duration.Milliseconds(),
	)
}
