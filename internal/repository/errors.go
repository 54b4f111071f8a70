package repository

import "errors"

// Store error taxonomy. Services wrap these with context via fmt.Errorf and
// handlers map them to HTTP status codes with errors.Is.
var (
	// ErrNotFound is a lookup miss. Possibly expected, callers may fall back.
	ErrNotFound = errors.New("not found")
	// ErrOverlap rejects a write that would violate temporal non-overlap.
	ErrOverlap = errors.New("validity window overlap")
	// ErrIntegrity signals corrupted store state, e.g. two active entries
	// covering the same tax year. Never resolved by picking one.
	ErrIntegrity = errors.New("data integrity violation")
	// ErrNotMapped is an active cost category without an account mapping,
	// a data-quality defect surfaced to operators.
	ErrNotMapped = errors.New("category has no account mapping")
)
