package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document exists under a kind and key.
	ErrNotFound = errors.New("store: document not found")

	// ErrBatchTooLarge is returned when a multi-item call exceeds the
	// store's batch limit. Nothing is written.
	ErrBatchTooLarge = errors.New("store: batch exceeds store limit")

	// ErrUnknownKind is returned when a kind has no configured table.
	ErrUnknownKind = errors.New("store: unknown kind")
)

// PartialError reports a chunked multi-batch operation that failed after
// some chunks were already committed. Done counts the units durably
// written before the failure; the operation is not rolled back.
type PartialError struct {
	// Op names the failing operation (e.g. "bulk create posts").
	Op string

	// Done is the number of units committed before the failure.
	Done int

	// Total is the number of units the operation was asked to write.
	Total int

	// Err is the underlying store error.
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("store: %s: %d/%d committed: %v", e.Op, e.Done, e.Total, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
