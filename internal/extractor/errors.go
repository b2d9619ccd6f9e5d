package extractor

import (
	"errors"
	"fmt"
)

// ParseKind classifies why a body could not be extracted.
type ParseKind string

const (
	// KindNotHTML means the body is not an HTML document.
	KindNotHTML ParseKind = "NotHTML"
	// KindTruncated means the body was cut at the size limit.
	KindTruncated ParseKind = "Truncated"
)

var (
	// ErrNotHTML matches a *ParseError of kind NotHTML.
	ErrNotHTML = errors.New("not an HTML document")
	// ErrTruncated matches a *ParseError of kind Truncated.
	ErrTruncated = errors.New("document truncated")
)

// ParseError is returned by Extract when a body cannot be used.
type ParseError struct {
	Kind ParseKind
	// Detail describes what was seen, e.g. the content type.
	Detail string
	Err    error
}

// Error implements error.
func (e *ParseError) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "parse: " + msg
}

// Unwrap returns the underlying cause, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotHTML and ErrTruncated by kind.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrNotHTML:
		return e.Kind == KindNotHTML
	case ErrTruncated:
		return e.Kind == KindTruncated
	}
	return false
}
