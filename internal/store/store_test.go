package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, found, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	v, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", v)

	require.NoError(t, m.Set(ctx, "k", "v2"))
	v, _, _ = m.Get(ctx, "k")
	assert.Equal(t, "v2", v)

	require.NoError(t, m.Remove(ctx, "k"))
	_, found, _ = m.Get(ctx, "k")
	assert.False(t, found)

	// Removing an absent key is not an error.
	require.NoError(t, m.Remove(ctx, "k"))
}

func TestStoreJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())

	type rec struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// Absent key leaves the target untouched: empty means empty.
	var out []rec
	require.NoError(t, s.ReadJSON(ctx, KeyUsers, &out))
	assert.Empty(t, out)

	in := []rec{{ID: "a", Name: "one"}, {ID: "b", Name: "two"}}
	require.NoError(t, s.WriteJSON(ctx, KeyUsers, in))
	require.NoError(t, s.ReadJSON(ctx, KeyUsers, &out))
	assert.Equal(t, in, out)

	raw, found, err := s.ReadRaw(ctx, KeyUsers)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"a","name":"one"},{"id":"b","name":"two"}]`, raw)
}

func TestKeyNamespace(t *testing.T) {
	for _, key := range []string{
		KeyUsers, KeySessions, KeyPasswordResets, KeyConfig,
		KeyDrivers, KeyDriverSessions, KeyRides,
	} {
		assert.Contains(t, key, Prefix)
	}
	// Mirror keys deliberately sit outside the prefixed namespace.
	assert.Equal(t, "auth_user", KeyAuthUser)
	assert.Equal(t, "auth_driver", KeyAuthDriver)
	assert.Equal(t, "admin_user", KeyAdminUser)
}
