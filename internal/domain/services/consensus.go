package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
)

// DefaultJudgeTimeout bounds each persona call when the caller doesn't
// specify one.
const DefaultJudgeTimeout = 30 * time.Second

// ConsensusService adjudicates a disputed edit chain by consulting
// independent judging personas and aggregating their votes.
type ConsensusService struct {
	store        ports.Store
	ledger       *LedgerService
	judgeTimeout time.Duration
	log          *zap.Logger
}

// NewConsensusService creates a new ConsensusService. judgeTimeout bounds
// each individual persona call; zero or negative selects the default.
func NewConsensusService(store ports.Store, ledger *LedgerService, judgeTimeout time.Duration, log *zap.Logger) *ConsensusService {
	if judgeTimeout <= 0 {
		judgeTimeout = DefaultJudgeTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsensusService{
		store:        store,
		ledger:       ledger,
		judgeTimeout: judgeTimeout,
		log:          log,
	}
}

// Adjudicate verifies the entity's edit chain, invokes every judge in
// parallel, and records a new verdict. A broken chain fails with
// *entities.ChainIntegrityError before any persona is consulted. A judge
// that errors, times out, or answers outside the verdict vocabulary is
// recorded as abstaining; one slow persona never blocks the rest.
func (s *ConsensusService) Adjudicate(ctx context.Context, entityID string, judges []ports.Judge, judgeCtx map[string]string) (*entities.ConsensusVerdict, error) {
	if len(judges) == 0 {
		return nil, fmt.Errorf("at least one judge is required")
	}

	result, err := s.ledger.Verify(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("verifying chain: %w", err)
	}
	if !result.Valid {
		return nil, &entities.ChainIntegrityError{EntityID: entityID, BrokenAt: *result.BrokenAt}
	}

	history, err := s.store.ListEditRecords(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("fetching edit history: %w", err)
	}

	// Votes keep the caller's judge order regardless of completion order.
	votes := make([]entities.PersonaVote, len(judges))
	g, gctx := errgroup.WithContext(ctx)
	for i, judge := range judges {
		i, judge := i, judge
		g.Go(func() error {
			votes[i] = s.collectVote(gctx, judge, history, judgeCtx)
			return nil
		})
	}
	// Judges never return errors through the group; degraded calls are
	// recorded as abstentions instead.
	_ = g.Wait()

	verdict := &entities.ConsensusVerdict{
		ID:        uuid.New().String(),
		EntityID:  entityID,
		Votes:     votes,
		Aggregate: AggregateVotes(votes),
		DecidedAt: timeNow(),
	}

	if err := s.store.SaveVerdict(ctx, verdict); err != nil {
		return nil, fmt.Errorf("saving verdict: %w", err)
	}

	s.log.Info("adjudication recorded",
		zap.String("entity_id", entityID),
		zap.String("aggregate", string(verdict.Aggregate)),
		zap.Int("judges", len(judges)))
	return verdict, nil
}

// collectVote runs one judge under the per-persona timeout and degrades
// any failure to an abstention with the reason recorded.
func (s *ConsensusService) collectVote(ctx context.Context, judge ports.Judge, history []entities.EditRecord, judgeCtx map[string]string) entities.PersonaVote {
	jctx, cancel := context.WithTimeout(ctx, s.judgeTimeout)
	defer cancel()

	opinion, err := judge.Judge(jctx, history, judgeCtx)
	if err != nil {
		s.log.Warn("judge failed, recording abstention",
			zap.String("persona", judge.Name()),
			zap.Error(err))
		return entities.PersonaVote{
			PersonaID: judge.Name(),
			Verdict:   entities.VerdictAbstain,
			Reasoning: fmt.Sprintf("judge failed: %v", err),
		}
	}
	if !entities.ValidVerdict(opinion.Verdict) {
		return entities.PersonaVote{
			PersonaID: judge.Name(),
			Verdict:   entities.VerdictAbstain,
			Reasoning: fmt.Sprintf("verdict %q outside vocabulary: %s", opinion.Verdict, opinion.Reasoning),
		}
	}
	return entities.PersonaVote{
		PersonaID: judge.Name(),
		Verdict:   opinion.Verdict,
		Reasoning: opinion.Reasoning,
	}
}

// AggregateVotes computes the aggregate verdict from a vote list:
// plurality over non-abstaining votes, ties resolved to inconclusive,
// inconclusive when everyone abstained. Pure function — re-running it
// over a stored vote list always reproduces the recorded aggregate.
func AggregateVotes(votes []entities.PersonaVote) entities.Verdict {
	counts := make(map[entities.Verdict]int)
	for i := range votes {
		if votes[i].Verdict == entities.VerdictAbstain {
			continue
		}
		counts[votes[i].Verdict]++
	}
	if len(counts) == 0 {
		return entities.VerdictInconclusive
	}

	best := entities.VerdictInconclusive
	bestCount := 0
	tied := false
	for _, v := range []entities.Verdict{entities.VerdictGuilty, entities.VerdictNotGuilty, entities.VerdictInconclusive} {
		c := counts[v]
		if c > bestCount {
			best = v
			bestCount = c
			tied = false
		} else if c == bestCount && c > 0 {
			tied = true
		}
	}
	if tied {
		return entities.VerdictInconclusive
	}
	return best
}
