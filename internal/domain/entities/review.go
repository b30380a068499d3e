package entities

import "time"

// ReviewStatus tracks a review through its lifecycle.
type ReviewStatus string

const (
	// ReviewPendingReciprocal means the counterparty has not yet submitted
	// their side. The review is visible only to its own reviewer.
	ReviewPendingReciprocal ReviewStatus = "pending_reciprocal"
	// ReviewPublished means both sides submitted and were revealed together.
	ReviewPublished ReviewStatus = "published"
	// ReviewExpired means the deadline passed with no reciprocal. The
	// content stays hidden from the counterparty permanently.
	ReviewExpired ReviewStatus = "expired"
)

// ReviewWindow is how long the counterparty has to submit a reciprocal
// review before the original expires.
const ReviewWindow = 14 * 24 * time.Hour

const (
	// MinRating is the lowest allowed review rating.
	MinRating = 1
	// MaxRating is the highest allowed review rating.
	MaxRating = 5
)

// Review is a one-directional evaluation submitted by one actor about
// another actor's content or interaction. Reviews are created hidden and
// only become visible to the counterparty when their reciprocal exists.
type Review struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	// ReviewerID wrote this review; CounterpartyID owes the reciprocal.
	ReviewerID         string       `json:"reviewer_id"`
	CounterpartyID     string       `json:"counterparty_id"`
	Rating             int          `json:"rating"`
	Feedback           string       `json:"feedback"`
	Status             ReviewStatus `json:"status"`
	ReciprocalReviewID string       `json:"reciprocal_review_id,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	DeadlineAt         time.Time    `json:"deadline_at"`
}

// Terminal reports whether the review has reached a final state.
func (r *Review) Terminal() bool {
	return r.Status == ReviewPublished || r.Status == ReviewExpired
}

// VisibleTo reports whether the given actor may read this review.
// A reviewer can always read their own review; anyone else only sees it
// once published.
func (r *Review) VisibleTo(actorID string) bool {
	if r.ReviewerID == actorID {
		return true
	}
	return r.Status == ReviewPublished
}
