package ports

import "context"

// EndorsementPlatform queries an external platform's endorsement state,
// e.g. whether a user has starred a repository. Implementations must
// honor ctx deadlines; the caller decides cache and fallback policy.
type EndorsementPlatform interface {
	// Query reports whether the actor has given a public endorsement for
	// the target namespace.
	Query(ctx context.Context, actorHandle, namespace string) (bool, error)
}
