package model

import (
	"errors"
	"fmt"
	"testing"
)

// TestValidationError tests errors.Is matching on ValidationError kinds.
func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("empty query matches ErrEmptyQuery only", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("search: %w", NewValidationError(ValidationEmptyQuery, "  ", nil))
		if !errors.Is(err, ErrEmptyQuery) {
			t.Error("expected ErrEmptyQuery match")
		}
		if errors.Is(err, ErrInvalidSeedURL) {
			t.Error("did not expect ErrInvalidSeedURL match")
		}
	})

	t.Run("invalid seed unwraps cause", func(t *testing.T) {
		t.Parallel()

		err := NewValidationError(ValidationInvalidSeedURL, "nope", ErrInvalidURL)
		if !errors.Is(err, ErrInvalidSeedURL) {
			t.Error("expected ErrInvalidSeedURL match")
		}
		if !errors.Is(err, ErrInvalidURL) {
			t.Error("expected cause ErrInvalidURL to be reachable")
		}

		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Input != "nope" {
			t.Errorf("expected ValidationError with input 'nope', got %v", ve)
		}
	})
}
