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

func TestBootstrapSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	require.NoError(t, Bootstrap(ctx, st))

	users := NewUserRepo(st)
	assert.Len(t, users.All(ctx), 3)
	admin, err := users.ByEmail(ctx, "admin@autonow.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Len(t, NewDriverRepo(st).All(ctx), 2)

	var cfg model.DBConfig
	require.NoError(t, st.ReadJSON(ctx, store.KeyConfig, &cfg))
	assert.Equal(t, SchemaVersion, cfg.Version)
}

func TestBootstrapNoopOnCurrentMarker(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	require.NoError(t, Bootstrap(ctx, st))

	u, err := NewUserRepo(st).Create(ctx, testUser("keep@x.com", "+99"))
	require.NoError(t, err)

	require.NoError(t, Bootstrap(ctx, st))
	got, err := NewUserRepo(st).ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep@x.com", got.Email)
}

func TestBootstrapWipesStaleMarker(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	require.NoError(t, st.WriteJSON(ctx, store.KeyConfig, model.DBConfig{
		Version:     "1.0.0",
		LastUpdated: time.Now().UTC(),
	}))
	_, err := NewUserRepo(st).Create(ctx, testUser("old@x.com", "+97"))
	require.NoError(t, err)

	require.NoError(t, Bootstrap(ctx, st))

	_, err = NewUserRepo(st).ByEmail(ctx, "old@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, NewUserRepo(st).All(ctx), 3)
}

func TestBootstrapRefusesNewerMarker(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	require.NoError(t, st.WriteJSON(ctx, store.KeyConfig, model.DBConfig{
		Version:     "3.1.0",
		LastUpdated: time.Now().UTC(),
	}))
	u, err := NewUserRepo(st).Create(ctx, testUser("future@x.com", "+98"))
	require.NoError(t, err)

	// An older binary must not destroy a store a newer one owns.
	require.NoError(t, Bootstrap(ctx, st))

	got, err := NewUserRepo(st).ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "future@x.com", got.Email)
	assert.Len(t, NewUserRepo(st).All(ctx), 1)

	var cfg model.DBConfig
	require.NoError(t, st.ReadJSON(ctx, store.KeyConfig, &cfg))
	assert.Equal(t, "3.1.0", cfg.Version)
}

func TestVersionLess(t *testing.T) {
	assert.True(t, versionLess("1.9.9", "2.0.0"))
	assert.True(t, versionLess("2.0", "2.0.0.1"))
	assert.False(t, versionLess("2.0.0", "2.0.0"))
	assert.False(t, versionLess("2.0.1", "2.0.0"))
	assert.False(t, versionLess("10.0.0", "2.0.0"))
}
