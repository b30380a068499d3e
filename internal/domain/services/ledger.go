// Package services contains domain business logic.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// LedgerService maintains the append-only edit chain for each entity.
type LedgerService struct {
	store ports.Store
	log   *zap.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store ports.Store, log *zap.Logger) *LedgerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerService{store: store, log: log}
}

// ContentHash computes the digest recorded for one edit's content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// chainHash binds a record to its predecessor. The separator keeps field
// boundaries unambiguous so no two (prev, content, seq) triples collide
// on concatenation.
func chainHash(prevHash, contentHash string, sequence int) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte("|"))
	h.Write([]byte(contentHash))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(sequence)))
	return hex.EncodeToString(h.Sum(nil))
}

// Append records a new edit for an entity and links it into the chain.
// Appends for the same entity are serialized by an optimistic sequence
// check: when a concurrent append wins the same sequence number, this
// fails with entities.ErrConcurrentAppend and the caller retries.
func (s *LedgerService) Append(ctx context.Context, entityID, content, authorID string) (*entities.EditRecord, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}

	latest, err := s.store.LatestEditRecord(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("fetching latest edit record: %w", err)
	}

	sequence := 0
	prevHash := ""
	if latest != nil {
		sequence = latest.Sequence + 1
		prevHash = latest.ChainHash
	}

	contentHash := ContentHash(content)
	rec := &entities.EditRecord{
		EntityID:    entityID,
		Sequence:    sequence,
		ContentHash: contentHash,
		PrevHash:    prevHash,
		ChainHash:   chainHash(prevHash, contentHash, sequence),
		AuthorID:    authorID,
		CreatedAt:   timeNow(),
	}

	if err := s.store.AppendEditRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("appending edit record: %w", err)
	}

	s.log.Debug("edit appended",
		zap.String("entity_id", entityID),
		zap.Int("sequence", sequence))
	return rec, nil
}

// Verify walks an entity's chain from sequence 0 forward, recomputing
// each chain hash and checking the linkage to the next record. It is
// read-only; an empty chain verifies as valid.
func (s *LedgerService) Verify(ctx context.Context, entityID string) (entities.VerifyResult, error) {
	records, err := s.store.ListEditRecords(ctx, entityID)
	if err != nil {
		return entities.VerifyResult{}, fmt.Errorf("listing edit records: %w", err)
	}

	expectedPrev := ""
	for i := range records {
		rec := &records[i]
		if rec.Sequence != i {
			return brokenAt(rec.Sequence), nil
		}
		if rec.PrevHash != expectedPrev {
			return brokenAt(rec.Sequence), nil
		}
		if chainHash(rec.PrevHash, rec.ContentHash, rec.Sequence) != rec.ChainHash {
			return brokenAt(rec.Sequence), nil
		}
		expectedPrev = rec.ChainHash
	}

	return entities.VerifyResult{Valid: true}, nil
}

// History returns the entity's full edit history in sequence order.
func (s *LedgerService) History(ctx context.Context, entityID string) ([]entities.EditRecord, error) {
	return s.store.ListEditRecords(ctx, entityID)
}

func brokenAt(sequence int) entities.VerifyResult {
	return entities.VerifyResult{Valid: false, BrokenAt: &sequence}
}
