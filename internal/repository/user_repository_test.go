package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

func newTestStore() *store.Store { return store.New(store.NewMemory()) }

func testUser(email, phone string) model.User {
	return model.User{
		Name:             "Test User",
		Email:            email,
		Phone:            phone,
		Password:         utils.HashPassword("pw1"),
		OriginalPassword: "pw1",
		IsActive:         true,
	}
}

func TestUserCreateAssignsIdentityAndTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestStore())

	u, err := repo.Create(ctx, testUser("a@b.com", "+1"))
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	assert.Equal(t, model.RoleUser, u.Role)

	u2, err := repo.Create(ctx, testUser("c@d.com", "+2"))
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, u2.ID)
	assert.Len(t, repo.All(ctx), 2)
}

func TestUserCreateUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestStore())

	_, err := repo.Create(ctx, testUser("dup@x.com", "+1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testUser("dup@x.com", "+2"))
	assert.ErrorIs(t, err, ErrEmailExists)

	// Email matching is case-insensitive.
	_, err = repo.Create(ctx, testUser("DUP@X.COM", "+3"))
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = repo.Create(ctx, testUser("other@x.com", "+1"))
	assert.ErrorIs(t, err, ErrPhoneExists)

	// Failed creates leave the collection untouched.
	assert.Len(t, repo.All(ctx), 1)
}

func TestUserUpdateMergesAndBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestStore())

	u, err := repo.Create(ctx, testUser("a@b.com", "+1"))
	require.NoError(t, err)

	name := "Renamed"
	inactive := false
	updated, err := repo.Update(ctx, u.ID, model.UserPatch{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.IsActive)
	// Untouched fields survive the merge.
	assert.Equal(t, u.Email, updated.Email)
	assert.Equal(t, u.Password, updated.Password)
	assert.True(t, updated.UpdatedAt.After(u.UpdatedAt))

	// A second immediate update still moves updatedAt strictly forward.
	again, err := repo.Update(ctx, u.ID, model.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))

	// Re-reading reflects the write.
	got, err := repo.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(again.UpdatedAt))
}

func TestUserUpdateMissing(t *testing.T) {
	repo := NewUserRepo(newTestStore())
	name := "x"
	_, err := repo.Update(context.Background(), "nope", model.UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserLookupsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestStore())

	u, err := repo.Create(ctx, testUser("find@me.com", "+7"))
	require.NoError(t, err)

	byEmail, err := repo.ByEmail(ctx, "Find@Me.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byPhone, err := repo.ByPhone(ctx, "+7")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byPhone.ID)

	removed, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, repo.All(ctx))

	removed, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
