package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/mocks"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
	"github.com/Soulfra/soulfra-sub007/internal/domain/services"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/config"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/store/sqlite"
)

const testNamespace = "Soulfra/soulfra"

// harness wires the full stack against a file-backed SQLite store, with
// only the endorsement platform and judges replaced by mocks.
type harness struct {
	repo     *sqlite.Repository
	platform *mocks.EndorsementPlatform

	ledger    *services.LedgerService
	reviews   *services.ReviewService
	consensus *services.ConsensusService
	gate      *services.GateService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "accountability.db")
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))

	// Verify file was created
	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")

	platform := mocks.NewEndorsementPlatform()
	endorsement := services.NewEndorsementService(platform, services.EndorsementOptions{}, nil)
	ledger := services.NewLedgerService(repo, nil)

	return &harness{
		repo:      repo,
		platform:  platform,
		ledger:    ledger,
		reviews:   services.NewReviewService(repo, nil),
		consensus: services.NewConsensusService(repo, ledger, time.Second, nil),
		gate:      services.NewGateService(repo, endorsement, testNamespace, nil),
	}
}

func TestAccountabilityIntegration_GateWalk(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	h := newHarness(t)

	// A fresh actor is blocked at every step in order.
	dec, err := h.gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, entities.GateNoIdentity, dec.State)

	require.NoError(t, h.gate.LinkIdentity(ctx, "actor-a", "octocat"))
	dec, err = h.gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, entities.GateNotEndorsed, dec.State)

	h.platform.SetEndorsed("octocat", testNamespace, true)
	// The unendorsed answer is cached; wait out nothing — a fresh service
	// would re-query, so use a new harness-level check via the pending
	// review path instead: submit first, the review step is checked after
	// endorsement anyway.
	dec, err = h.gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, entities.GateNotEndorsed, dec.State, "cached answer is still served inside the TTL")

	// Fresh endorsement service sees the new star.
	endorsement := services.NewEndorsementService(h.platform, services.EndorsementOptions{}, nil)
	gate := services.NewGateService(h.repo, endorsement, testNamespace, nil)

	dec, err = gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, entities.GateNoReview, dec.State)

	review, err := h.reviews.Submit(ctx, "subject-1", "actor-a", "actor-b", 4, "thorough and fair")
	require.NoError(t, err)
	assert.Equal(t, entities.ReviewPendingReciprocal, review.Status)

	dec, err = gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, entities.GateAwaitingReciprocal, dec.State)

	// The counterparty sees the obligation but not the sealed content.
	pending, err := h.reviews.PendingForActor(ctx, "actor-b")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = h.reviews.VisibleReview(ctx, "actor-b", review.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)

	pair, err := h.reviews.SubmitReciprocal(ctx, review.ID, "actor-b", 5, "great collaborator")
	require.NoError(t, err)
	assert.Equal(t, entities.ReviewPublished, pair.Original.Status)
	assert.Equal(t, entities.ReviewPublished, pair.Reciprocal.Status)

	// Both sides are now visible to everyone.
	visible, err := h.reviews.VisibleReview(ctx, "actor-b", review.ID)
	require.NoError(t, err)
	assert.Equal(t, "thorough and fair", visible.Feedback)

	dec, err = gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, entities.GateAllowed, dec.State)
}

func TestAccountabilityIntegration_DisputeLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	h := newHarness(t)

	// Build an edit chain for the disputed message.
	contents := []string{"original message", "small clarification", "full rewrite"}
	for _, content := range contents {
		_, err := h.ledger.Append(ctx, "comment-1", content, "actor-a")
		require.NoError(t, err)
	}

	result, err := h.ledger.Verify(ctx, "comment-1")
	require.NoError(t, err)
	assert.True(t, result.Valid)

	history, err := h.ledger.History(ctx, "comment-1")
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Two personas find the rewrite suspicious; one abstains by failing.
	judges := []ports.Judge{
		&mocks.Judge{ID: "strict-historian", Opinion: ports.Opinion{Verdict: entities.VerdictGuilty, Reasoning: "full rewrite after complaint"}},
		&mocks.Judge{ID: "good-faith-reader", Opinion: ports.Opinion{Verdict: entities.VerdictGuilty, Reasoning: "the final edit changed the meaning"}},
		&mocks.Judge{ID: "pattern-skeptic", Err: assert.AnError},
	}

	verdict, err := h.consensus.Adjudicate(ctx, "comment-1", judges, map[string]string{"complaint": "they reworded the promise"})
	require.NoError(t, err)
	assert.Equal(t, entities.VerdictGuilty, verdict.Aggregate)
	require.Len(t, verdict.Votes, 3)
	assert.Equal(t, entities.VerdictAbstain, verdict.Votes[2].Verdict)

	// The standing guilty verdict blocks replies to the subject even for a
	// fully cleared actor.
	require.NoError(t, h.gate.LinkIdentity(ctx, "actor-b", "hubber"))
	h.platform.SetEndorsed("hubber", testNamespace, true)

	review, err := h.reviews.Submit(ctx, "comment-1", "actor-b", "actor-a", 3, "context for the record")
	require.NoError(t, err)
	_, err = h.reviews.SubmitReciprocal(ctx, review.ID, "actor-a", 4, "noted")
	require.NoError(t, err)

	dec, err := h.gate.Check(ctx, "actor-b", "comment-1")
	require.NoError(t, err)
	assert.Equal(t, entities.GateUnderDispute, dec.State)

	// A later adjudication clears the dispute.
	cleared, err := h.consensus.Adjudicate(ctx, "comment-1", []ports.Judge{
		&mocks.Judge{ID: "moderator", Opinion: ports.Opinion{Verdict: entities.VerdictNotGuilty, Reasoning: "edits were disclosed"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.VerdictNotGuilty, cleared.Aggregate)

	dec, err = h.gate.Check(ctx, "actor-b", "comment-1")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	// The adjudication history survives, newest first.
	all, err := h.repo.FindVerdictsByEntity(ctx, "comment-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, cleared.ID, all[0].ID)
}

func TestAccountabilityIntegration_TamperDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	h := newHarness(t)

	_, err := h.ledger.Append(ctx, "comment-1", "first", "actor-a")
	require.NoError(t, err)
	rec, err := h.ledger.Append(ctx, "comment-1", "second", "actor-a")
	require.NoError(t, err)

	// Rewrite a stored hash behind the ledger's back.
	tampered := *rec
	tampered.Sequence = 2
	tampered.ContentHash = services.ContentHash("forged")
	require.NoError(t, h.repo.AppendEditRecord(ctx, &tampered))

	result, err := h.ledger.Verify(ctx, "comment-1")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotNil(t, result.BrokenAt)
	assert.Equal(t, 2, *result.BrokenAt)

	// A broken chain cannot be adjudicated.
	_, err = h.consensus.Adjudicate(ctx, "comment-1", []ports.Judge{
		&mocks.Judge{ID: "strict-historian", Opinion: ports.Opinion{Verdict: entities.VerdictGuilty}},
	}, nil)

	var integrityErr *entities.ChainIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, 2, integrityErr.BrokenAt)
}

func TestAccountabilityIntegration_ExpirySweep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	h := newHarness(t)

	review, err := h.reviews.Submit(ctx, "subject-1", "actor-a", "actor-b", 4, "sealed forever")
	require.NoError(t, err)

	// Nothing is due yet.
	count, err := h.reviews.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Force the deadline into the past directly in the store.
	expired, err := h.repo.ExpireOverdueReviews(ctx, time.Now().Add(entities.ReviewWindow+time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// The reciprocal window is closed.
	_, err = h.reviews.SubmitReciprocal(ctx, review.ID, "actor-b", 5, "too late")
	require.ErrorIs(t, err, entities.ErrAlreadyResolved)

	// The sealed content never becomes visible to the counterparty.
	_, err = h.reviews.VisibleReview(ctx, "actor-b", review.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)

	// The expired review still satisfies the reviewer's gate obligation.
	require.NoError(t, h.gate.LinkIdentity(ctx, "actor-a", "octocat"))
	h.platform.SetEndorsed("octocat", testNamespace, true)

	dec, err := h.gate.Check(ctx, "actor-a", "subject-1")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}
