package circulation

import "errors"

// Domain error kinds. Callers match with errors.Is; anything else wrapping a
// driver error is a transient store failure and may be retried.
var (
	// ErrNotFound means a referenced copy, transaction, borrower, or book
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the entity exists but its lifecycle state
	// forbids the operation (issuing a non-available copy, withdrawing a
	// borrowed copy, completing a returned transaction, ...).
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation means the request itself is malformed: missing
	// withdrawal narration, duplicate rename target, empty borrower id.
	ErrValidation = errors.New("validation failed")

	// ErrConflict means a concurrent mutation won the race, e.g. the loan
	// was completed by another staff member mid-operation.
	ErrConflict = errors.New("conflict")
)
