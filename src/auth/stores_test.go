package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "u1", "student@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "student@example.com", got.Email)
}

func TestSessionStore_Expiry(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client, time.Millisecond)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "u1", "student@example.com")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = store.GetSession(ctx, session.ID)
	assert.Error(t, err)
}

func TestSessionStore_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "u1", "student@example.com")
	require.NoError(t, err)

	require.NoError(t, store.DeleteSession(ctx, session.ID))

	_, err = store.GetSession(ctx, session.ID)
	assert.Error(t, err)
}

func TestSessionStore_Refresh(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "u1", "student@example.com")
	require.NoError(t, err)

	require.NoError(t, store.RefreshSession(ctx, session.ID))

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.After(session.ExpiresAt) || got.ExpiresAt.Equal(session.ExpiresAt))
}

func TestStateStore_OneTimeUse(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewStateStore(client, 10*time.Minute)
	ctx := context.Background()

	state, err := store.GenerateState()
	require.NoError(t, err)
	require.NoError(t, store.SaveState(ctx, state))

	valid, err := store.ConsumeState(ctx, state)
	require.NoError(t, err)
	assert.True(t, valid)

	// A replayed callback must fail.
	valid, err = store.ConsumeState(ctx, state)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestStateStore_UnknownState(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewStateStore(client, 10*time.Minute)

	valid, err := store.ConsumeState(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestCredentialStore_SetAndVerify(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewCredentialStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.SetPassword(ctx, "Student@Example.com", "correct horse"))

	assert.NoError(t, store.Verify(ctx, "student@example.com", "correct horse"))
	assert.ErrorIs(t, store.Verify(ctx, "student@example.com", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, store.Verify(ctx, "nobody@example.com", "anything"), ErrInvalidCredentials)
}

func TestCredentialStore_HasCredential(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewCredentialStore(client, time.Hour)
	ctx := context.Background()

	has, err := store.HasCredential(ctx, "student@example.com")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.SetPassword(ctx, "student@example.com", "pw"))

	has, err = store.HasCredential(ctx, "student@example.com")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCredentialStore_ResetTokenFlow(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewCredentialStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.SetPassword(ctx, "student@example.com", "old password"))

	token, err := store.CreateResetToken(ctx, "student@example.com")
	require.NoError(t, err)

	email, err := store.ConsumeResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", email)

	// One-time use.
	_, err = store.ConsumeResetToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	require.NoError(t, store.SetPassword(ctx, email, "new password"))
	assert.NoError(t, store.Verify(ctx, "student@example.com", "new password"))
	assert.ErrorIs(t, store.Verify(ctx, "student@example.com", "old password"), ErrInvalidCredentials)
}
