package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
)

const (
	// DefaultEndorsementTTL is how long a platform answer is served
	// without re-querying.
	DefaultEndorsementTTL = 5 * time.Minute
	// DefaultStaleCeiling is the hard limit on serving a cached answer
	// when the platform is unreachable.
	DefaultStaleCeiling = 24 * time.Hour
	// DefaultQueryTimeout bounds one platform call.
	DefaultQueryTimeout = 10 * time.Second

	endorsementCacheSize = 4096
)

type cachedEndorsement struct {
	endorsed  bool
	checkedAt time.Time
}

// EndorsementService answers "has this actor endorsed this namespace"
// with a TTL cache in front of the external platform. This is the most
// rate-limit-sensitive dependency in the chain, so answers are reused
// for a few minutes and, when the platform is down, served stale up to a
// hard ceiling. Past the ceiling the check fails closed with
// entities.ErrEndorsementUnavailable.
type EndorsementService struct {
	platform ports.EndorsementPlatform
	cache    *expirable.LRU[string, cachedEndorsement]
	ttl      time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// EndorsementOptions tunes cache and timeout behavior. Zero values select
// the defaults.
type EndorsementOptions struct {
	TTL          time.Duration
	StaleCeiling time.Duration
	QueryTimeout time.Duration
}

// NewEndorsementService creates a new EndorsementService.
func NewEndorsementService(platform ports.EndorsementPlatform, opts EndorsementOptions, log *zap.Logger) *EndorsementService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultEndorsementTTL
	}
	if opts.StaleCeiling <= 0 {
		opts.StaleCeiling = DefaultStaleCeiling
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EndorsementService{
		platform: platform,
		// Entries live for the stale ceiling; freshness within that
		// window is decided against checkedAt.
		cache:   expirable.NewLRU[string, cachedEndorsement](endorsementCacheSize, nil, opts.StaleCeiling),
		ttl:     opts.TTL,
		timeout: opts.QueryTimeout,
		log:     log,
	}
}

// HasEndorsed reports whether the actor has endorsed the namespace,
// serving a fresh cached answer when one exists. On platform failure it
// falls back to any answer still inside the stale ceiling; with nothing
// cached it fails with entities.ErrEndorsementUnavailable (fail closed).
func (s *EndorsementService) HasEndorsed(ctx context.Context, actorHandle, namespace string) (bool, error) {
	if actorHandle == "" || namespace == "" {
		return false, fmt.Errorf("actor handle and namespace are required")
	}

	key := actorHandle + "\x00" + namespace
	if entry, ok := s.cache.Get(key); ok && timeNow().Sub(entry.checkedAt) < s.ttl {
		return entry.endorsed, nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endorsed, err := s.platform.Query(qctx, actorHandle, namespace)
	if err != nil {
		if entry, ok := s.cache.Get(key); ok {
			s.log.Warn("endorsement platform unreachable, serving cached answer",
				zap.String("actor", actorHandle),
				zap.Error(err))
			return entry.endorsed, nil
		}
		return false, fmt.Errorf("querying platform for %s: %v: %w", actorHandle, err, entities.ErrEndorsementUnavailable)
	}

	s.cache.Add(key, cachedEndorsement{endorsed: endorsed, checkedAt: timeNow()})
	return endorsed, nil
}
