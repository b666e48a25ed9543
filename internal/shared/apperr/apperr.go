// Package apperr defines the error categories shared by every feature.
// Feature sentinels wrap exactly one category so that transports can map
// failures without knowing feature internals.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced symbol or portfolio that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReference marks a write rejected by a referential constraint.
	ErrReference = errors.New("invalid reference")

	// ErrConflict marks a uniqueness violation or a concurrent update the store refused.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks a store that could not be reached or could not commit.
	ErrUnavailable = errors.New("persistence unavailable")
)

// Unavailable wraps a driver error as ErrUnavailable, keeping the cause in the chain.
// Errors that already carry a category are returned unchanged.
func Unavailable(err error) error {
	if err == nil || HasCategory(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// HasCategory reports whether err already wraps one of the categories above.
func HasCategory(err error) bool {
	for _, c := range []error{ErrValidation, ErrNotFound, ErrReference, ErrConflict, ErrUnavailable} {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}
