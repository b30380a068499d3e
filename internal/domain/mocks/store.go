// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
)

// Store is an in-memory implementation of ports.Store. It honors the
// same serialization points as the durable store: per-entity append
// uniqueness and compare-and-set pair publication, so concurrency
// properties can be tested against it.
type Store struct {
	mu sync.Mutex

	// Records maps entity ID to its edit chain, sequence order. Exposed
	// so tests can tamper with stored hashes out-of-band.
	Records map[string][]entities.EditRecord
	// Reviews maps review ID to review.
	Reviews map[string]*entities.Review
	// Verdicts maps entity ID to verdicts in insertion order.
	Verdicts map[string][]entities.ConsensusVerdict
	// Identities maps actor ID to external platform handle.
	Identities map[string]string

	// Err, when set, is returned by every operation.
	Err error
}

// NewStore creates a new in-memory Store.
func NewStore() *Store {
	return &Store{
		Records:    make(map[string][]entities.EditRecord),
		Reviews:    make(map[string]*entities.Review),
		Verdicts:   make(map[string][]entities.ConsensusVerdict),
		Identities: make(map[string]string),
	}
}

// EnsureSchema is a no-op for the in-memory store.
func (s *Store) EnsureSchema(_ context.Context) error { return s.Err }

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// AppendEditRecord persists a record, enforcing sequence uniqueness.
func (s *Store) AppendEditRecord(_ context.Context, rec *entities.EditRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.Records[rec.EntityID]
	for i := range chain {
		if chain[i].Sequence == rec.Sequence {
			return entities.ErrConcurrentAppend
		}
	}
	s.Records[rec.EntityID] = append(chain, *rec)
	return nil
}

// LatestEditRecord returns the highest-sequence record, or nil.
func (s *Store) LatestEditRecord(_ context.Context, entityID string) (*entities.EditRecord, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.Records[entityID]
	if len(chain) == 0 {
		return nil, nil
	}
	latest := chain[len(chain)-1]
	return &latest, nil
}

// ListEditRecords returns the chain in sequence order.
func (s *Store) ListEditRecords(_ context.Context, entityID string) ([]entities.EditRecord, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.Records[entityID]
	out := make([]entities.EditRecord, len(chain))
	copy(out, chain)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// SaveReview inserts a new review.
func (s *Store) SaveReview(_ context.Context, review *entities.Review) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *review
	s.Reviews[review.ID] = &clone
	return nil
}

// FindReview finds a review by ID, or nil.
func (s *Store) FindReview(_ context.Context, id string) (*entities.Review, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.Reviews[id]
	if !ok {
		return nil, nil
	}
	clone := *review
	return &clone, nil
}

// FindReviewBySubjectReviewer finds the most recent review for the pair.
func (s *Store) FindReviewBySubjectReviewer(_ context.Context, subjectID, reviewerID string) (*entities.Review, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *entities.Review
	for _, review := range s.Reviews {
		if review.SubjectID != subjectID || review.ReviewerID != reviewerID {
			continue
		}
		if latest == nil || review.CreatedAt.After(latest.CreatedAt) {
			latest = review
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

// FindReviewsBySubject returns all reviews for a subject.
func (s *Store) FindReviewsBySubject(_ context.Context, subjectID string) ([]entities.Review, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entities.Review
	for _, review := range s.Reviews {
		if review.SubjectID == subjectID {
			out = append(out, *review)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PublishReviewPair atomically publishes both sides, compare-and-set on
// the original's pending status.
func (s *Store) PublishReviewPair(_ context.Context, original, reciprocal *entities.Review) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.Reviews[original.ID]
	if !ok {
		return entities.ErrNotFound
	}
	if stored.Status != entities.ReviewPendingReciprocal {
		return entities.ErrAlreadyResolved
	}

	stored.Status = entities.ReviewPublished
	stored.ReciprocalReviewID = reciprocal.ID
	clone := *reciprocal
	s.Reviews[reciprocal.ID] = &clone
	return nil
}

// ExpireOverdueReviews expires pending reviews past their deadline.
func (s *Store) ExpireOverdueReviews(_ context.Context, now time.Time) (int, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, review := range s.Reviews {
		if review.Status == entities.ReviewPendingReciprocal && review.DeadlineAt.Before(now) {
			review.Status = entities.ReviewExpired
			count++
		}
	}
	return count, nil
}

// FindPendingForActor returns reviews awaiting this actor's reciprocal.
func (s *Store) FindPendingForActor(_ context.Context, actorID string) ([]entities.Review, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entities.Review
	for _, review := range s.Reviews {
		if review.Status == entities.ReviewPendingReciprocal && review.CounterpartyID == actorID {
			out = append(out, *review)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveVerdict appends a verdict.
func (s *Store) SaveVerdict(_ context.Context, verdict *entities.ConsensusVerdict) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Verdicts[verdict.EntityID] = append(s.Verdicts[verdict.EntityID], *verdict)
	return nil
}

// FindVerdictsByEntity returns verdicts newest first.
func (s *Store) FindVerdictsByEntity(_ context.Context, entityID string) ([]entities.ConsensusVerdict, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.Verdicts[entityID]
	out := make([]entities.ConsensusVerdict, len(stored))
	for i := range stored {
		out[len(stored)-1-i] = stored[i]
	}
	return out, nil
}

// FindLatestVerdict returns the most recent verdict, or nil.
func (s *Store) FindLatestVerdict(_ context.Context, entityID string) (*entities.ConsensusVerdict, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.Verdicts[entityID]
	if len(stored) == 0 {
		return nil, nil
	}
	latest := stored[len(stored)-1]
	return &latest, nil
}

// LinkIdentity records an actor's external handle.
func (s *Store) LinkIdentity(_ context.Context, actorID, handle string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Identities[actorID] = handle
	return nil
}

// FindExternalIdentity returns the actor's handle, or "".
func (s *Store) FindExternalIdentity(_ context.Context, actorID string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Identities[actorID], nil
}
