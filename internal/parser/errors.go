package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when the text is empty or whitespace only
	ErrEmptyInput = errors.New("empty input")
	// ErrNoMarker is returned when no line carries a verse marker
	ErrNoMarker = errors.New("no verse marker found")
	// ErrInvalidConfig is returned by New for an unusable Config
	ErrInvalidConfig = errors.New("invalid parser config")
)

// ParseError reports why a text could not be split into verses
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("parse error: %s", e.Reason)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(err error, reason string) *ParseError {
	return &ParseError{Reason: reason, Err: err}
}
