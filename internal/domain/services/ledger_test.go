package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/mocks"
)

func TestLedgerService_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("first append starts the chain at sequence zero", func(t *testing.T) {
		store := mocks.NewStore()
		svc := NewLedgerService(store, nil)

		rec, err := svc.Append(ctx, "comment-1", "hello world", "actor-a")
		require.NoError(t, err)

		assert.Equal(t, 0, rec.Sequence)
		assert.Empty(t, rec.PrevHash)
		assert.Equal(t, ContentHash("hello world"), rec.ContentHash)
		assert.NotEmpty(t, rec.ChainHash)
	})

	t.Run("subsequent appends link to the predecessor", func(t *testing.T) {
		store := mocks.NewStore()
		svc := NewLedgerService(store, nil)

		first, err := svc.Append(ctx, "comment-1", "hello", "actor-a")
		require.NoError(t, err)
		second, err := svc.Append(ctx, "comment-1", "hello, edited", "actor-a")
		require.NoError(t, err)

		assert.Equal(t, 1, second.Sequence)
		assert.Equal(t, first.ChainHash, second.PrevHash)
		assert.NotEqual(t, first.ChainHash, second.ChainHash)
	})

	t.Run("chains for different entities are independent", func(t *testing.T) {
		store := mocks.NewStore()
		svc := NewLedgerService(store, nil)

		_, err := svc.Append(ctx, "comment-1", "a", "actor-a")
		require.NoError(t, err)
		rec, err := svc.Append(ctx, "comment-2", "b", "actor-b")
		require.NoError(t, err)

		assert.Equal(t, 0, rec.Sequence)
	})

	t.Run("racing append surfaces conflict for retry", func(t *testing.T) {
		store := mocks.NewStore()
		svc := NewLedgerService(store, nil)

		_, err := svc.Append(ctx, "comment-1", "a", "actor-a")
		require.NoError(t, err)

		// Simulate the race: another writer takes sequence 1 between our
		// latest-record read and our insert.
		winner := &entities.EditRecord{EntityID: "comment-1", Sequence: 1}
		require.NoError(t, store.AppendEditRecord(ctx, winner))

		loser := &entities.EditRecord{EntityID: "comment-1", Sequence: 1}
		err = store.AppendEditRecord(ctx, loser)
		assert.ErrorIs(t, err, entities.ErrConcurrentAppend)
	})

	t.Run("empty entity id rejected", func(t *testing.T) {
		svc := NewLedgerService(mocks.NewStore(), nil)
		_, err := svc.Append(ctx, "", "content", "actor-a")
		require.Error(t, err)
	})
}

func TestLedgerService_Verify(t *testing.T) {
	ctx := context.Background()

	buildChain := func(t *testing.T, store *mocks.Store, entityID string, edits ...string) {
		t.Helper()
		svc := NewLedgerService(store, nil)
		for _, content := range edits {
			_, err := svc.Append(ctx, entityID, content, "actor-a")
			require.NoError(t, err)
		}
	}

	t.Run("untouched chain is valid", func(t *testing.T) {
		store := mocks.NewStore()
		buildChain(t, store, "comment-1", "v1", "v2", "v3")

		result, err := NewLedgerService(store, nil).Verify(ctx, "comment-1")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Nil(t, result.BrokenAt)
	})

	t.Run("empty chain is valid", func(t *testing.T) {
		result, err := NewLedgerService(mocks.NewStore(), nil).Verify(ctx, "nothing-here")
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("tampered content hash pins the exact sequence", func(t *testing.T) {
		store := mocks.NewStore()
		buildChain(t, store, "comment-1", "v1", "v2", "v3")

		store.Records["comment-1"][1].ContentHash = ContentHash("something else")

		result, err := NewLedgerService(store, nil).Verify(ctx, "comment-1")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		require.NotNil(t, result.BrokenAt)
		assert.Equal(t, 1, *result.BrokenAt)
	})

	t.Run("tampered prev hash pins the exact sequence", func(t *testing.T) {
		store := mocks.NewStore()
		buildChain(t, store, "comment-1", "v1", "v2", "v3")

		store.Records["comment-1"][2].PrevHash = "forged"

		result, err := NewLedgerService(store, nil).Verify(ctx, "comment-1")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		require.NotNil(t, result.BrokenAt)
		assert.Equal(t, 2, *result.BrokenAt)
	})

	t.Run("missing sequence breaks the chain", func(t *testing.T) {
		store := mocks.NewStore()
		buildChain(t, store, "comment-1", "v1", "v2", "v3")

		// Drop the middle record.
		chain := store.Records["comment-1"]
		store.Records["comment-1"] = []entities.EditRecord{chain[0], chain[2]}

		result, err := NewLedgerService(store, nil).Verify(ctx, "comment-1")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		require.NotNil(t, result.BrokenAt)
		assert.Equal(t, 2, *result.BrokenAt)
	})

	t.Run("store errors propagate", func(t *testing.T) {
		store := mocks.NewStore()
		store.Err = errors.New("store down")
		_, err := NewLedgerService(store, nil).Verify(ctx, "comment-1")
		require.Error(t, err)
	})
}

func TestContentHash_Deterministic(t *testing.T) {
	assert.Equal(t, ContentHash("same input"), ContentHash("same input"))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}
