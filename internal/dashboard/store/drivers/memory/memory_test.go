package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
	"github.com/hollybot/dashboard/internal/dashboard/store"
	"github.com/hollybot/dashboard/internal/dashboard/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	now := time.Now().UTC().Truncate(time.Second)
	session := domain.Session{
		Identity:     "123",
		Username:     "alice",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.Get(ctx, "123")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, session))

	got, err := s.Get(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, session, got)

	// Put is an upsert keyed by identity.
	session.AccessToken = "at2"
	session.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.Put(ctx, session))

	got, err = s.Get(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, "at2", got.AccessToken)

	require.NoError(t, s.Delete(ctx, "123"))
	_, err = s.Get(ctx, "123")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting an absent entry is not an error.
	require.NoError(t, s.Delete(ctx, "123"))
}

func TestDeleteStale(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	now := time.Now().UTC()
	require.NoError(t, s.Put(ctx, domain.Session{Identity: "old", UpdatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.Put(ctx, domain.Session{Identity: "fresh", UpdatedAt: now}))

	removed, err := s.DeleteStale(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = s.Get(ctx, "old")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, "fresh")
	require.NoError(t, err)
}
