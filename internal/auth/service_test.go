package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/repository"
	"github.com/autonow/autonow-backend/internal/store"
)

func newTestService() (*Service, *store.Store) {
	st := store.New(store.NewMemory())
	return NewService(st, HashLegacy, 0), st
}

func TestAuthenticateUserScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.RegisterUser(ctx, "A B", "a@b.com", "+1", "pw1")
	require.NoError(t, err)
	assert.Nil(t, created.LastLoginAt)
	assert.Equal(t, "pw1", created.OriginalPassword)

	u := svc.AuthenticateUser(ctx, "a@b.com", "pw1")
	require.NotNil(t, u)
	assert.Equal(t, created.ID, u.ID)
	require.NotNil(t, u.LastLoginAt)
	assert.WithinDuration(t, time.Now().UTC(), *u.LastLoginAt, 5*time.Second)

	assert.Nil(t, svc.AuthenticateUser(ctx, "a@b.com", "wrong"))
	assert.Nil(t, svc.AuthenticateUser(ctx, "nobody@b.com", "pw1"))

	byPhone := svc.AuthenticateUserByPhone(ctx, "+1", "pw1")
	require.NotNil(t, byPhone)
	assert.Equal(t, created.ID, byPhone.ID)
}

func TestAuthenticateInactiveUserDenied(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	u, err := svc.RegisterUser(ctx, "A", "a@b.com", "+1", "pw1")
	require.NoError(t, err)
	inactive := false
	_, err = svc.Users.Update(ctx, u.ID, model.UserPatch{IsActive: &inactive})
	require.NoError(t, err)

	// Inactive and bad-credential denials are indistinguishable.
	assert.Nil(t, svc.AuthenticateUser(ctx, "a@b.com", "pw1"))
}

func TestDuplicateRegistrationLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.RegisterUser(ctx, "A", "dup@x.com", "+1", "pw1")
	require.NoError(t, err)

	_, err = svc.RegisterUser(ctx, "B", "dup@x.com", "+2", "pw2")
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.Len(t, svc.Users.All(ctx), 1)
}

func TestSessionLifecycleAndMirror(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	u, err := svc.RegisterUser(ctx, "A", "a@b.com", "+1", "pw1")
	require.NoError(t, err)

	sess, err := svc.CreateSession(ctx, u, "agent", "127.0.0.1")
	require.NoError(t, err)

	// The mirror holds the password-stripped identity.
	var mirrored model.PublicUser
	require.NoError(t, st.ReadJSON(ctx, store.KeyAuthUser, &mirrored))
	assert.Equal(t, u.ID, mirrored.ID)
	raw, _, err := st.ReadRaw(ctx, store.KeyAuthUser)
	require.NoError(t, err)
	assert.NotContains(t, raw, "password")

	// Logout invalidates the session and clears the mirror.
	ok, err := svc.Logout(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = svc.Sessions.ActiveByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, found, err := st.ReadRaw(ctx, store.KeyAuthUser)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAdminMirrorKey(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	u, err := svc.Users.Create(ctx, model.User{
		Name: "Root", Email: "root@x.com", Phone: "+9",
		Password: "x", Role: model.RoleAdmin, IsActive: true,
	})
	require.NoError(t, err)

	_, err = svc.CreateSession(ctx, u, "", "")
	require.NoError(t, err)

	_, found, err := st.ReadRaw(ctx, store.KeyAdminUser)
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = st.ReadRaw(ctx, store.KeyAuthUser)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPasswordResetSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	u, err := svc.RegisterUser(ctx, "A", "a@b.com", "+1", "oldpw")
	require.NoError(t, err)

	reset, err := svc.CreatePasswordReset(ctx, u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, reset.CreatedAt.Add(time.Hour), reset.ExpiresAt, time.Second)

	require.NoError(t, svc.UsePasswordReset(ctx, reset.Token, "newpw"))
	assert.NotNil(t, svc.AuthenticateUser(ctx, "a@b.com", "newpw"))
	assert.Nil(t, svc.AuthenticateUser(ctx, "a@b.com", "oldpw"))

	// Consumed tokens answer exactly like unknown ones.
	err = svc.UsePasswordReset(ctx, reset.Token, "again")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPasswordResetUnknownUser(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreatePasswordReset(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCleanupExpiredDataIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	u, err := svc.RegisterUser(ctx, "A", "a@b.com", "+1", "pw1")
	require.NoError(t, err)

	live, err := svc.CreateSession(ctx, u, "", "")
	require.NoError(t, err)
	stale, err := svc.CreateSession(ctx, u, "", "")
	require.NoError(t, err)
	_, err = svc.Sessions.Invalidate(ctx, stale.Token)
	require.NoError(t, err)

	reset, err := svc.CreatePasswordReset(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, svc.UsePasswordReset(ctx, reset.Token, "pw2"))

	removed, err := svc.CleanupExpiredData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed) // the invalidated session and the used reset

	snapshot := func() map[string]string {
		out := make(map[string]string)
		for _, key := range []string{store.KeySessions, store.KeyDriverSessions, store.KeyPasswordResets} {
			raw, _, err := st.ReadRaw(ctx, key)
			require.NoError(t, err)
			out[key] = raw
		}
		return out
	}

	first := snapshot()
	removed, err = svc.CleanupExpiredData(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	// A second pass with no intervening mutation leaves the persisted
	// collections byte-identical.
	assert.Equal(t, first, snapshot())

	_, err = svc.Sessions.ActiveByToken(ctx, live.Token)
	assert.NoError(t, err)
}

func TestDriverAuthFlow(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	d, err := svc.RegisterDriver(ctx, "D", "d@x.com", "+5", "pw1", "KZ 001 AA", "DL-1")
	require.NoError(t, err)
	assert.Equal(t, model.DriverOffline, d.Status)
	assert.False(t, d.IsVerified)

	got := svc.AuthenticateDriver(ctx, "d@x.com", "pw1")
	require.NotNil(t, got)
	require.NotNil(t, got.LastLoginAt)
	assert.Nil(t, svc.AuthenticateDriver(ctx, "d@x.com", "nope"))

	sess, err := svc.CreateDriverSession(ctx, *got, "", "")
	require.NoError(t, err)
	_, found, err := st.ReadRaw(ctx, store.KeyAuthDriver)
	require.NoError(t, err)
	assert.True(t, found)

	ok, err := svc.LogoutDriver(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = svc.DriverSessions.ActiveByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDriverLogoutAllEverywhere(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	d, err := svc.RegisterDriver(ctx, "D", "d@x.com", "+5", "pw1", "KZ 001 AA", "DL-1")
	require.NoError(t, err)
	s1, err := svc.CreateDriverSession(ctx, d, "", "")
	require.NoError(t, err)
	s2, err := svc.CreateDriverSession(ctx, d, "", "")
	require.NoError(t, err)

	n, err := svc.LogoutAllDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.DriverSessions.ActiveByToken(ctx, s1.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = svc.DriverSessions.ActiveByToken(ctx, s2.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The driver identity mirror is gone too.
	_, found, err := st.ReadRaw(ctx, store.KeyAuthDriver)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBcryptModeSkipsPlaintextRetention(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemory())
	svc := NewService(st, HashBcrypt, 4)

	u, err := svc.RegisterUser(ctx, "A", "a@b.com", "+1", "pw1")
	require.NoError(t, err)
	assert.Empty(t, u.OriginalPassword)
	assert.Contains(t, u.Password, "$2")

	assert.NotNil(t, svc.AuthenticateUser(ctx, "a@b.com", "pw1"))
	assert.Nil(t, svc.AuthenticateUser(ctx, "a@b.com", "pw2"))
}
