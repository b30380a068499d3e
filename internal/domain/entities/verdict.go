package entities

import "time"

// Verdict is the fixed vocabulary a judging persona may answer with.
type Verdict string

const (
	VerdictGuilty       Verdict = "guilty"
	VerdictNotGuilty    Verdict = "not_guilty"
	VerdictInconclusive Verdict = "inconclusive"
	// VerdictAbstain is recorded when a persona fails, times out, or
	// answers outside the vocabulary. Abstentions carry no weight in the
	// aggregate.
	VerdictAbstain Verdict = "abstain"
)

// ValidVerdict reports whether v is a verdict a persona is allowed to cast.
// Abstain is recorded by the engine, never cast directly.
func ValidVerdict(v Verdict) bool {
	switch v {
	case VerdictGuilty, VerdictNotGuilty, VerdictInconclusive:
		return true
	}
	return false
}

// PersonaVote is one judging persona's recorded opinion.
type PersonaVote struct {
	PersonaID string  `json:"persona_id"`
	Verdict   Verdict `json:"verdict"`
	Reasoning string  `json:"reasoning"`
}

// ConsensusVerdict is the outcome of adjudicating an entity's edit chain.
// Verdicts are append-only: a new adjudication request produces a new
// record rather than recomputing an old one in place.
type ConsensusVerdict struct {
	ID        string        `json:"id"`
	EntityID  string        `json:"entity_id"`
	Votes     []PersonaVote `json:"persona_votes"`
	Aggregate Verdict       `json:"aggregate_verdict"`
	DecidedAt time.Time     `json:"decided_at"`
}
