package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
)

// GateService answers "may this actor reply to this subject now" and, if
// not, what the next required step is. Check is read-only and idempotent;
// it is designed to run before every reply attempt.
type GateService struct {
	store       ports.Store
	endorsement *EndorsementService
	namespace   string
	log         *zap.Logger
}

// NewGateService creates a new GateService. namespace is the endorsement
// target actors must have endorsed (e.g. a repository full name).
func NewGateService(store ports.Store, endorsement *EndorsementService, namespace string, log *zap.Logger) *GateService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GateService{
		store:       store,
		endorsement: endorsement,
		namespace:   namespace,
		log:         log,
	}
}

// Check walks the permission state machine:
//
//	no_identity → not_endorsed → no_review → awaiting_reciprocal → allowed
//
// An unreachable endorsement platform fails closed (check_unavailable,
// retry later), and a standing guilty verdict for the subject blocks the
// reply until moderation clears it.
func (s *GateService) Check(ctx context.Context, actorID, subjectID string) (*entities.GateDecision, error) {
	if actorID == "" || subjectID == "" {
		return nil, fmt.Errorf("actor id and subject id are required")
	}

	handle, err := s.store.FindExternalIdentity(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("looking up external identity: %w", err)
	}
	if handle == "" {
		return decision(entities.GateNoIdentity, entities.StepLinkIdentity,
			"no verified external identity linked"), nil
	}

	endorsed, err := s.endorsement.HasEndorsed(ctx, handle, s.namespace)
	if err != nil {
		if errors.Is(err, entities.ErrEndorsementUnavailable) {
			// Never fail open on this check.
			return decision(entities.GateCheckUnavailable, entities.StepRetryLater,
				"endorsement check unavailable, try again shortly"), nil
		}
		return nil, fmt.Errorf("checking endorsement: %w", err)
	}
	if !endorsed {
		return decision(entities.GateNotEndorsed, entities.StepGiveEndorsement,
			fmt.Sprintf("endorsement for %s not found", s.namespace)), nil
	}

	review, err := s.store.FindReviewBySubjectReviewer(ctx, subjectID, actorID)
	if err != nil {
		return nil, fmt.Errorf("looking up review: %w", err)
	}
	if review == nil {
		return decision(entities.GateNoReview, entities.StepSubmitReview,
			"no review submitted for this subject"), nil
	}
	if review.Status == entities.ReviewPendingReciprocal {
		return decision(entities.GateAwaitingReciprocal, entities.StepWaitForCounterparty,
			"your review is sealed until the counterparty responds or it expires"), nil
	}

	// Published or expired both satisfy the review obligation; a
	// non-responsive counterparty never deadlocks the workflow.
	verdict, err := s.store.FindLatestVerdict(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("looking up verdict: %w", err)
	}
	if verdict != nil && verdict.Aggregate == entities.VerdictGuilty {
		return decision(entities.GateUnderDispute, entities.StepAwaitModeration,
			"subject is under a standing guilty verdict"), nil
	}

	return &entities.GateDecision{
		Allowed:  true,
		State:    entities.GateAllowed,
		NextStep: entities.StepNone,
	}, nil
}

// LinkIdentity records an actor's verified handle on the endorsement
// platform, satisfying the link_identity step.
func (s *GateService) LinkIdentity(ctx context.Context, actorID, handle string) error {
	if actorID == "" || handle == "" {
		return fmt.Errorf("actor id and handle are required")
	}
	if err := s.store.LinkIdentity(ctx, actorID, handle); err != nil {
		return fmt.Errorf("linking identity: %w", err)
	}
	s.log.Info("identity linked", zap.String("actor_id", actorID), zap.String("handle", handle))
	return nil
}

func decision(state entities.GateState, step entities.NextStep, detail string) *entities.GateDecision {
	return &entities.GateDecision{
		Allowed:  false,
		State:    state,
		NextStep: step,
		Detail:   detail,
	}
}
