package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracecoe/placement-portal/src/models"
)

func setupTestStore(t *testing.T) (*UserStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewUserStore(client), mr
}

func testUser(id, email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		Name:         "Test Student",
		Provider:     "email",
		CreatedAt:    now,
		LastSignInAt: now,
		UpdatedAt:    now,
	}
}

func TestUserStore_CreateAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	user := testUser("u1", "student@example.com")
	require.NoError(t, store.Create(ctx, user))

	byID, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", byID.Email)

	byEmail, err := store.GetByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
}

func TestUserStore_EmailLookupIsCaseInsensitive(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testUser("u1", "Student@Example.COM")))

	user, err := store.GetByEmail(ctx, "STUDENT@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "student@example.com", user.Email, "email stored lowercased")
}

func TestUserStore_CreateConflict(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testUser("u1", "student@example.com")))

	err := store.Create(ctx, testUser("u2", "student@example.com"))
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	// The index still points at the winner.
	user, err := store.GetByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestUserStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserStore_SaveOverwrites(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	user := testUser("u1", "student@example.com")
	require.NoError(t, store.Create(ctx, user))

	user.Name = "Renamed Student"
	user.IsAdmin = true
	require.NoError(t, store.Save(ctx, user))

	got, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Student", got.Name)
	assert.True(t, got.IsAdmin)
}

func TestUserStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testUser("u1", "student@example.com")))
	require.NoError(t, store.Delete(ctx, "u1"))

	_, err := store.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = store.GetByEmail(ctx, "student@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
