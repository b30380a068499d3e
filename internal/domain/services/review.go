package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
)

// ReviewPair holds both sides of a published review exchange.
type ReviewPair struct {
	Original   *entities.Review `json:"original"`
	Reciprocal *entities.Review `json:"reciprocal"`
}

// ReviewService manages paired, initially-hidden reviews between a
// content author and a reactor. Neither side's review is visible to the
// other before both exist; publication reveals both at once.
type ReviewService struct {
	store ports.Store
	log   *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store ports.Store, log *zap.Logger) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{store: store, log: log}
}

// Submit creates a hidden review awaiting its reciprocal from
// counterpartyID (the subject's author). It fails with
// entities.ErrDuplicateReview if this reviewer already has a non-expired
// review for the subject.
func (s *ReviewService) Submit(ctx context.Context, subjectID, reviewerID, counterpartyID string, rating int, feedback string) (*entities.Review, error) {
	if err := validateReviewInput(subjectID, reviewerID, rating); err != nil {
		return nil, err
	}
	if counterpartyID == "" {
		return nil, fmt.Errorf("counterparty id is required")
	}
	if counterpartyID == reviewerID {
		return nil, fmt.Errorf("reviewer %s cannot review their own interaction", reviewerID)
	}

	existing, err := s.store.FindReviewBySubjectReviewer(ctx, subjectID, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("checking existing review: %w", err)
	}
	if existing != nil && existing.Status != entities.ReviewExpired {
		return nil, fmt.Errorf("reviewer %s on subject %s: %w", reviewerID, subjectID, entities.ErrDuplicateReview)
	}

	now := timeNow()
	review := &entities.Review{
		ID:             uuid.New().String(),
		SubjectID:      subjectID,
		ReviewerID:     reviewerID,
		CounterpartyID: counterpartyID,
		Rating:         rating,
		Feedback:       feedback,
		Status:         entities.ReviewPendingReciprocal,
		CreatedAt:      now,
		DeadlineAt:     now.Add(entities.ReviewWindow),
	}

	if err := s.store.SaveReview(ctx, review); err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}

	s.log.Debug("review submitted",
		zap.String("review_id", review.ID),
		zap.String("subject_id", subjectID))
	return review, nil
}

// SubmitReciprocal creates the paired review and publishes both sides in
// one atomic transition. It fails with entities.ErrNotFound for an
// unknown original and entities.ErrAlreadyResolved when the original is
// no longer pending_reciprocal — including when a concurrent reciprocal
// for the same original won the race.
func (s *ReviewService) SubmitReciprocal(ctx context.Context, originalReviewID, reviewerID string, rating int, feedback string) (*ReviewPair, error) {
	original, err := s.store.FindReview(ctx, originalReviewID)
	if err != nil {
		return nil, fmt.Errorf("finding original review: %w", err)
	}
	if original == nil {
		return nil, fmt.Errorf("review %s: %w", originalReviewID, entities.ErrNotFound)
	}
	if err := validateReviewInput(original.SubjectID, reviewerID, rating); err != nil {
		return nil, err
	}
	if reviewerID == original.ReviewerID {
		return nil, fmt.Errorf("reviewer %s cannot reciprocate their own review", reviewerID)
	}
	if reviewerID != original.CounterpartyID {
		return nil, fmt.Errorf("review %s awaits a reciprocal from %s, not %s", original.ID, original.CounterpartyID, reviewerID)
	}
	if original.Status != entities.ReviewPendingReciprocal {
		return nil, fmt.Errorf("review %s is %s: %w", originalReviewID, original.Status, entities.ErrAlreadyResolved)
	}

	now := timeNow()
	reciprocal := &entities.Review{
		ID:                 uuid.New().String(),
		SubjectID:          original.SubjectID,
		ReviewerID:         reviewerID,
		CounterpartyID:     original.ReviewerID,
		Rating:             rating,
		Feedback:           feedback,
		Status:             entities.ReviewPublished,
		ReciprocalReviewID: original.ID,
		CreatedAt:          now,
		DeadlineAt:         now.Add(entities.ReviewWindow),
	}
	original.Status = entities.ReviewPublished
	original.ReciprocalReviewID = reciprocal.ID

	// The store's compare-and-set on the original's status is what makes
	// the reveal atomic under racing calls; the status check above is
	// only a fast path.
	if err := s.store.PublishReviewPair(ctx, original, reciprocal); err != nil {
		return nil, fmt.Errorf("publishing review pair: %w", err)
	}

	s.log.Debug("review pair published",
		zap.String("original_id", original.ID),
		zap.String("reciprocal_id", reciprocal.ID))
	return &ReviewPair{Original: original, Reciprocal: reciprocal}, nil
}

// ExpireOverdue transitions every pending review past its deadline to
// expired and returns how many changed. Safe to run repeatedly; already
// expired reviews are untouched.
func (s *ReviewService) ExpireOverdue(ctx context.Context) (int, error) {
	count, err := s.store.ExpireOverdueReviews(ctx, timeNow())
	if err != nil {
		return 0, fmt.Errorf("expiring overdue reviews: %w", err)
	}
	if count > 0 {
		s.log.Info("expired overdue reviews", zap.Int("count", count))
	}
	return count, nil
}

// PendingForActor returns the reviews awaiting this actor's reciprocal
// action — the actor's "things I owe a review for" queue.
func (s *ReviewService) PendingForActor(ctx context.Context, actorID string) ([]entities.Review, error) {
	return s.store.FindPendingForActor(ctx, actorID)
}

// VisibleReview returns a review only if the viewer may see it: its own
// reviewer always can, anyone else only once it is published. Hidden
// reviews surface as entities.ErrNotFound so their existence leaks
// nothing.
func (s *ReviewService) VisibleReview(ctx context.Context, viewerID, reviewID string) (*entities.Review, error) {
	review, err := s.store.FindReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("finding review: %w", err)
	}
	if review == nil || !review.VisibleTo(viewerID) {
		return nil, fmt.Errorf("review %s: %w", reviewID, entities.ErrNotFound)
	}
	return review, nil
}

// ReviewsForSubject returns the subject's reviews the viewer may see:
// all published ones plus the viewer's own in any state.
func (s *ReviewService) ReviewsForSubject(ctx context.Context, viewerID, subjectID string) ([]entities.Review, error) {
	reviews, err := s.store.FindReviewsBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("finding subject reviews: %w", err)
	}

	visible := make([]entities.Review, 0, len(reviews))
	for i := range reviews {
		if reviews[i].VisibleTo(viewerID) {
			visible = append(visible, reviews[i])
		}
	}
	return visible, nil
}

func validateReviewInput(subjectID, reviewerID string, rating int) error {
	if subjectID == "" {
		return fmt.Errorf("subject id is required")
	}
	if reviewerID == "" {
		return fmt.Errorf("reviewer id is required")
	}
	if rating < entities.MinRating || rating > entities.MaxRating {
		return fmt.Errorf("rating must be between %d and %d", entities.MinRating, entities.MaxRating)
	}
	return nil
}
