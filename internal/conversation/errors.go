package conversation

import "errors"

var (
	// ErrNotFound is returned when a conversation id does not exist where
	// existence was required.
	ErrNotFound = errors.New("conversation not found")

	// ErrVersionConflict is returned when an update lost a compare-and-swap
	// race against a concurrent writer. Callers may reload and retry.
	ErrVersionConflict = errors.New("conversation version conflict")
)
