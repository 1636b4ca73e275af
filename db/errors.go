package db

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced group does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed IDs, dates or statuses
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream wraps failures of the spreadsheet backend
	ErrUpstream = errors.New("spreadsheet backend unavailable")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
