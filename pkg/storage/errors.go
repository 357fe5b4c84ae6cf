package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique key (user id or email) is taken.
	ErrConflict = errors.New("already exists")
)
