package entities

// GateState is where an actor sits in the reply-permission state machine.
type GateState string

const (
	GateNoIdentity         GateState = "no_identity"
	GateNotEndorsed        GateState = "not_endorsed"
	GateNoReview           GateState = "no_review"
	GateAwaitingReciprocal GateState = "awaiting_reciprocal"
	GateUnderDispute       GateState = "under_dispute"
	GateCheckUnavailable   GateState = "check_unavailable"
	GateAllowed            GateState = "allowed"
)

// NextStep is the action that would move the actor forward.
type NextStep string

const (
	StepLinkIdentity        NextStep = "link_identity"
	StepGiveEndorsement     NextStep = "give_endorsement"
	StepSubmitReview        NextStep = "submit_review"
	StepWaitForCounterparty NextStep = "wait_for_counterparty"
	StepAwaitModeration     NextStep = "await_moderation"
	StepRetryLater          NextStep = "retry_later"
	StepNone                NextStep = "none"
)

// GateDecision is the ephemeral output of a permission check. It is never
// persisted; every reply attempt computes a fresh one.
type GateDecision struct {
	Allowed  bool      `json:"allowed"`
	State    GateState `json:"state"`
	NextStep NextStep  `json:"next_step"`
	Detail   string    `json:"detail,omitempty"`
}
