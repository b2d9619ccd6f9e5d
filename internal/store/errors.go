package store

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store failures.
type ErrorKind string

const (
	// KindWriteFailed means text could not be persisted (disk full,
	// permission denied, missing directory).
	KindWriteFailed ErrorKind = "WriteFailed"
	// KindNotFound means no page exists for the id.
	KindNotFound ErrorKind = "NotFound"
)

var (
	// ErrWriteFailed matches a *StoreError of kind WriteFailed.
	ErrWriteFailed = errors.New("store write failed")
	// ErrNotFound matches a *StoreError of kind NotFound.
	ErrNotFound = errors.New("page not found")
)

// StoreError is returned by FileStore operations.
type StoreError struct {
	Kind   ErrorKind
	PageID string
	Err    error
}

// Error implements error.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store %s %s: %v", e.Kind, e.PageID, e.Err)
	}
	return fmt.Sprintf("store %s %s", e.Kind, e.PageID)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrWriteFailed and ErrNotFound by kind.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrWriteFailed:
		return e.Kind == KindWriteFailed
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}
