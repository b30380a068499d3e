package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the subsystem. Callers distinguish them
// with errors.Is.
var (
	// ErrConcurrentAppend means another append for the same entity raced
	// and won. Retryable: refetch the latest record and append again.
	ErrConcurrentAppend = errors.New("concurrent append conflict")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReview means the reviewer already has a non-expired
	// review for this subject.
	ErrDuplicateReview = errors.New("duplicate review")

	// ErrAlreadyResolved means the review left pending_reciprocal before
	// this call took effect (already published or expired).
	ErrAlreadyResolved = errors.New("review already resolved")

	// ErrEndorsementUnavailable means the external endorsement platform
	// could not be reached and no usable cached answer exists. The gate
	// fails closed on this error.
	ErrEndorsementUnavailable = errors.New("endorsement check unavailable")
)

// ChainIntegrityError means an entity's edit chain failed verification.
// A broken chain cannot be adjudicated; this is surfaced to moderators,
// never silently skipped.
type ChainIntegrityError struct {
	EntityID string
	BrokenAt int
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("edit chain for %s broken at sequence %d", e.EntityID, e.BrokenAt)
}
