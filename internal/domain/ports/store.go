// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"time"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
)

// Store defines the durable store behind the accountability chain.
// All writes to edit records, reviews, and verdicts go through this
// interface; no other subsystem touches the tables directly.
type Store interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error

	// Edit record operations

	// AppendEditRecord persists a new edit record. The record's
	// (entity_id, sequence) pair must be unique; when another append for
	// the same entity raced and won, it fails with
	// entities.ErrConcurrentAppend and the caller retries.
	AppendEditRecord(ctx context.Context, rec *entities.EditRecord) error

	// LatestEditRecord returns the highest-sequence record for an entity,
	// or nil if the entity has no history.
	LatestEditRecord(ctx context.Context, entityID string) (*entities.EditRecord, error)

	// ListEditRecords returns an entity's full history in sequence order.
	ListEditRecords(ctx context.Context, entityID string) ([]entities.EditRecord, error)

	// Review operations

	// SaveReview inserts a new review.
	SaveReview(ctx context.Context, review *entities.Review) error

	// FindReview finds a review by ID, or nil if absent.
	FindReview(ctx context.Context, id string) (*entities.Review, error)

	// FindReviewBySubjectReviewer finds the most recent review this
	// reviewer submitted for this subject, any status, or nil.
	FindReviewBySubjectReviewer(ctx context.Context, subjectID, reviewerID string) (*entities.Review, error)

	// FindReviewsBySubject returns all reviews for a subject.
	FindReviewsBySubject(ctx context.Context, subjectID string) ([]entities.Review, error)

	// PublishReviewPair inserts the reciprocal review and flips the
	// original to published in one atomic transition, cross-linking the
	// two. The original must still be pending_reciprocal; the loser of a
	// race on the same original gets entities.ErrAlreadyResolved.
	PublishReviewPair(ctx context.Context, original, reciprocal *entities.Review) error

	// ExpireOverdueReviews transitions every pending_reciprocal review
	// whose deadline has passed to expired, returning how many changed.
	ExpireOverdueReviews(ctx context.Context, now time.Time) (int, error)

	// FindPendingForActor returns reviews awaiting this actor's
	// reciprocal action.
	FindPendingForActor(ctx context.Context, actorID string) ([]entities.Review, error)

	// Verdict operations

	// SaveVerdict appends a consensus verdict. Verdicts are never updated.
	SaveVerdict(ctx context.Context, verdict *entities.ConsensusVerdict) error

	// FindVerdictsByEntity returns all verdicts for an entity, newest first.
	FindVerdictsByEntity(ctx context.Context, entityID string) ([]entities.ConsensusVerdict, error)

	// FindLatestVerdict returns the most recent verdict for an entity,
	// or nil if it was never adjudicated.
	FindLatestVerdict(ctx context.Context, entityID string) (*entities.ConsensusVerdict, error)

	// External identity operations

	// LinkIdentity records an actor's verified handle on the external
	// endorsement platform.
	LinkIdentity(ctx context.Context, actorID, handle string) error

	// FindExternalIdentity returns the actor's linked platform handle,
	// or "" if no identity is linked.
	FindExternalIdentity(ctx context.Context, actorID string) (string, error)
}
