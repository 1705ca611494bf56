package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrAggregateNotFound = fmt.Errorf("%w: aggregate record", ErrNotFound)

	// Input errors
	ErrParse           = errors.New("parse error")
	ErrInvalidTimezone = errors.New("invalid display timezone")

	// Matching errors
	ErrNoCandidate = errors.New("no candidate session")
)

// Error constructors with context
func NewParseError(field string, value any, reason string) error {
	return fmt.Errorf("%w: %s %q: %s", ErrParse, field, fmt.Sprint(value), reason)
}

func NewNotFoundError(resource string, key string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, key)
}

func NewTimezoneError(name string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrInvalidTimezone, name, err)
}

// Error checking helpers
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNoCandidateError(err error) bool {
	return errors.Is(err, ErrNoCandidate)
}
