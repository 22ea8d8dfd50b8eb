package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
)

func TestSessionCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestStore())

	sess, err := repo.Create(ctx, "user-1", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.IsActive)
	assert.WithinDuration(t, sess.CreatedAt.Add(SessionTTL), sess.ExpiresAt, time.Second)

	got, err := repo.ActiveByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = repo.ActiveByToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestStore())

	sess, err := repo.Create(ctx, "user-1", "", "")
	require.NoError(t, err)

	ok, err := repo.Invalidate(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	// An invalidated session must fail any active-only lookup.
	_, err = repo.ActiveByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	// Second invalidate is a no-op.
	ok, err = repo.Invalidate(ctx, sess.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionInvalidateAllForUser(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newTestStore())

	s1, _ := repo.Create(ctx, "user-1", "", "")
	s2, _ := repo.Create(ctx, "user-1", "", "")
	s3, _ := repo.Create(ctx, "user-2", "", "")

	n, err := repo.InvalidateAllForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.ActiveByToken(ctx, s1.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.ActiveByToken(ctx, s2.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	// The other user's session is untouched.
	_, err = repo.ActiveByToken(ctx, s3.Token)
	assert.NoError(t, err)
}

// expireSession rewrites a stored session's expiry to the past, producing
// the "soft zombie" shape: still flagged active, already expired.
func expireSession(t *testing.T, s *store.Store, token string) {
	t.Helper()
	ctx := context.Background()
	s.Lock()
	defer s.Unlock()
	var sessions []model.Session
	require.NoError(t, s.ReadJSON(ctx, store.KeySessions, &sessions))
	for i := range sessions {
		if sessions[i].Token == token {
			sessions[i].ExpiresAt = time.Now().UTC().Add(-time.Minute)
		}
	}
	require.NoError(t, s.WriteJSON(ctx, store.KeySessions, sessions))
}

func TestSessionExpiryFiltersLookup(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	repo := NewSessionRepo(st)

	sess, err := repo.Create(ctx, "user-1", "", "")
	require.NoError(t, err)
	expireSession(t, st, sess.Token)

	// Still in storage and flagged active, but invalid for lookups.
	all := repo.All(ctx)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsActive)
	_, err = repo.ActiveByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionPrune(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	repo := NewSessionRepo(st)

	live, err := repo.Create(ctx, "user-1", "", "")
	require.NoError(t, err)
	zombie, err := repo.Create(ctx, "user-2", "", "")
	require.NoError(t, err)
	expireSession(t, st, zombie.Token)
	dead, err := repo.Create(ctx, "user-3", "", "")
	require.NoError(t, err)
	_, err = repo.Invalidate(ctx, dead.Token)
	require.NoError(t, err)

	removed, err := repo.Prune(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all := repo.All(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, live.ID, all[0].ID)
}
