package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/mocks"
)

func TestEndorsementService_HasEndorsed(t *testing.T) {
	ctx := context.Background()

	t.Run("answers from the platform and caches the result", func(t *testing.T) {
		platform := mocks.NewEndorsementPlatform()
		platform.SetEndorsed("octocat", "Soulfra/soulfra", true)
		svc := NewEndorsementService(platform, EndorsementOptions{}, nil)

		for i := 0; i < 3; i++ {
			endorsed, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
			require.NoError(t, err)
			assert.True(t, endorsed)
		}

		// Only the first call reaches the platform.
		assert.Equal(t, 1, platform.Queries)
	})

	t.Run("negative answers are cached too", func(t *testing.T) {
		platform := mocks.NewEndorsementPlatform()
		svc := NewEndorsementService(platform, EndorsementOptions{}, nil)

		for i := 0; i < 2; i++ {
			endorsed, err := svc.HasEndorsed(ctx, "stranger", "Soulfra/soulfra")
			require.NoError(t, err)
			assert.False(t, endorsed)
		}
		assert.Equal(t, 1, platform.Queries)
	})

	t.Run("re-queries once the answer goes stale", func(t *testing.T) {
		now := time.Now()
		timeNow = func() time.Time { return now }
		defer func() { timeNow = time.Now }()

		platform := mocks.NewEndorsementPlatform()
		platform.SetEndorsed("octocat", "Soulfra/soulfra", true)
		svc := NewEndorsementService(platform, EndorsementOptions{TTL: 5 * time.Minute}, nil)

		_, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.NoError(t, err)

		// The actor un-stars; the cached yes is served until the TTL lapses.
		platform.SetEndorsed("octocat", "Soulfra/soulfra", false)
		endorsed, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.NoError(t, err)
		assert.True(t, endorsed)
		assert.Equal(t, 1, platform.Queries)

		now = now.Add(6 * time.Minute)
		endorsed, err = svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.NoError(t, err)
		assert.False(t, endorsed)
		assert.Equal(t, 2, platform.Queries)
	})

	t.Run("serves stale answer when the platform is down", func(t *testing.T) {
		now := time.Now()
		timeNow = func() time.Time { return now }
		defer func() { timeNow = time.Now }()

		platform := mocks.NewEndorsementPlatform()
		platform.SetEndorsed("octocat", "Soulfra/soulfra", true)
		svc := NewEndorsementService(platform, EndorsementOptions{TTL: 5 * time.Minute}, nil)

		_, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.NoError(t, err)

		now = now.Add(time.Hour)
		platform.Err = errors.New("rate limited")

		endorsed, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.NoError(t, err)
		assert.True(t, endorsed)
	})

	t.Run("fails closed with nothing cached", func(t *testing.T) {
		platform := mocks.NewEndorsementPlatform()
		platform.Err = errors.New("connection refused")
		svc := NewEndorsementService(platform, EndorsementOptions{}, nil)

		_, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.ErrorIs(t, err, entities.ErrEndorsementUnavailable)
	})

	t.Run("handles are cached per namespace", func(t *testing.T) {
		platform := mocks.NewEndorsementPlatform()
		platform.SetEndorsed("octocat", "Soulfra/soulfra", true)
		svc := NewEndorsementService(platform, EndorsementOptions{}, nil)

		endorsed, err := svc.HasEndorsed(ctx, "octocat", "Soulfra/soulfra")
		require.NoError(t, err)
		assert.True(t, endorsed)

		endorsed, err = svc.HasEndorsed(ctx, "octocat", "Soulfra/other")
		require.NoError(t, err)
		assert.False(t, endorsed)
		assert.Equal(t, 2, platform.Queries)
	})

	t.Run("rejects empty arguments", func(t *testing.T) {
		svc := NewEndorsementService(mocks.NewEndorsementPlatform(), EndorsementOptions{}, nil)

		_, err := svc.HasEndorsed(ctx, "", "Soulfra/soulfra")
		require.Error(t, err)
		_, err = svc.HasEndorsed(ctx, "octocat", "")
		require.Error(t, err)
	})
}
