package model

import (
	"errors"
	"fmt"
)

// ValidationKind identifies why caller-supplied input was rejected.
type ValidationKind string

const (
	// ValidationEmptyQuery means a search term was empty or whitespace only.
	ValidationEmptyQuery ValidationKind = "EmptyQuery"
	// ValidationInvalidSeedURL means a seed could not be normalized.
	ValidationInvalidSeedURL ValidationKind = "InvalidSeedURL"
)

// Sentinels for errors.Is matching against *ValidationError.
var (
	// ErrEmptyQuery matches any ValidationError of kind EmptyQuery.
	ErrEmptyQuery = errors.New("search term must not be empty")
	// ErrInvalidSeedURL matches any ValidationError of kind InvalidSeedURL.
	ErrInvalidSeedURL = errors.New("invalid seed URL")
)

// ValidationError reports rejected input. It is returned synchronously to
// the caller and never aborts a running crawl.
type ValidationError struct {
	Kind  ValidationKind
	Input string
	Err   error
}

// NewValidationError creates a ValidationError.
func NewValidationError(kind ValidationKind, input string, err error) *ValidationError {
	return &ValidationError{Kind: kind, Input: input, Err: err}
}

// Error implements error.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationEmptyQuery:
		return ErrEmptyQuery.Error()
	case ValidationInvalidSeedURL:
		if e.Err != nil {
			return fmt.Sprintf("invalid seed URL %q: %v", e.Input, e.Err)
		}
		return fmt.Sprintf("invalid seed URL %q", e.Input)
	default:
		return fmt.Sprintf("validation error (%s): %q", e.Kind, e.Input)
	}
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrEmptyQuery) and errors.Is(err, ErrInvalidSeedURL)
// work for the corresponding kinds.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrEmptyQuery:
		return e.Kind == ValidationEmptyQuery
	case ErrInvalidSeedURL:
		return e.Kind == ValidationInvalidSeedURL
	}
	return false
}
