// Package idgen supplies collision-resistant identifiers for new records.
package idgen

import "github.com/google/uuid"

// IDLength is the length of every identifier produced here.
const IDLength = 36

// UUID generates random (version 4) UUID strings.
type UUID struct{}

// New returns a UUID generator.
func New() UUID {
	return UUID{}
}

// NewID returns a fresh identifier in canonical 36-character form.
func (UUID) NewID() string {
	return uuid.NewString()
}
