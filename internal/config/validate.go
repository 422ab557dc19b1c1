package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Parser.Prefix == "" {
		add("parser.prefix", "must not be empty")
	} else if strings.ContainsAny(c.Parser.Prefix, " \t\r\n") {
		add("parser.prefix", "must not contain whitespace: %q", c.Parser.Prefix)
	}
	if c.Source.URL != "" && !strings.HasPrefix(c.Source.URL, "http://") && !strings.HasPrefix(c.Source.URL, "https://") {
		add("source.url", "must be an http(s) URL: %q", c.Source.URL)
	}
	switch c.Output.Format {
	case "", "json", "sqlite":
	default:
		add("output.format", "must be json or sqlite, got %q", c.Output.Format)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		add("fetch.timeout_seconds", "must be positive, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.History.MaxEntries < 0 {
		add("history.max_entries", "must not be negative, got %d", c.History.MaxEntries)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		add("logging.format", "unknown format %q", c.Logging.Format)
	}
	switch c.UI.Theme {
	case "", "light", "dark":
	default:
		add("ui.theme", "must be light or dark, got %q", c.UI.Theme)
	}

	return errors.Join(errs...)
}
