package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record, or a record it
	// references, does not exist.
	ErrNotFound = errors.New("repositories: record not found")

	// ErrConflict is returned when a write collides with a uniqueness
	// constraint, such as a taken username or a duplicate subscription.
	ErrConflict = errors.New("repositories: record conflict")
)
