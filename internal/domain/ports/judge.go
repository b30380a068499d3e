package ports

import (
	"context"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
)

// Opinion is a single persona's answer for one adjudication.
type Opinion struct {
	Verdict   entities.Verdict `json:"verdict"`
	Reasoning string           `json:"reasoning"`
}

// Judge is an independent judging capability consulted during consensus
// adjudication. Implementations may be backed by model calls, human
// reviewers, or rule engines; the consensus engine is agnostic. A judge
// must honor ctx cancellation — a call that outlives its deadline is
// recorded as an abstention.
type Judge interface {
	// Name identifies the persona in the recorded vote list.
	Name() string

	// Judge evaluates an entity's verified edit history.
	Judge(ctx context.Context, history []entities.EditRecord, judgeCtx map[string]string) (Opinion, error)
}
