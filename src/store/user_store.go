package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/gracecoe/placement-portal/src/models"
)

const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user_email:"
)

// UserStore is the redis-backed user directory. Rows live under
// user:<id>; a unique lowercased-email index under user_email:<email>
// maps each address to exactly one row.
type UserStore struct {
	client *redis.Client
}

func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{
		client: client,
	}
}

// Create inserts a new user. The email index is claimed with SETNX so two
// concurrent reconciliations of the same session cannot both insert; the
// loser gets models.ErrAlreadyExists and is expected to re-fetch.
func (u *UserStore) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)

	claimed, err := u.client.SetNX(ctx, userEmailKeyPrefix+user.Email, user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim email index: %w", err)
	}
	if !claimed {
		return models.ErrAlreadyExists
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := u.client.Set(ctx, userKeyPrefix+user.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// Save overwrites the user row and refreshes the email index. Last write
// wins; every field written through here is an idempotent overwrite.
func (u *UserStore) Save(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	pipe := u.client.Pipeline()
	pipe.Set(ctx, userKeyPrefix+user.ID, data, 0)
	pipe.Set(ctx, userEmailKeyPrefix+user.Email, user.ID, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	data, err := u.client.Get(ctx, userKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)

	userID, err := u.client.Get(ctx, userEmailKeyPrefix+email).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return u.GetByID(ctx, userID)
}

// Delete removes a user and its email index. Admin action only; the
// reconciler never deletes.
func (u *UserStore) Delete(ctx context.Context, id string) error {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := u.client.Pipeline()
	pipe.Del(ctx, userKeyPrefix+id)
	pipe.Del(ctx, userEmailKeyPrefix+user.Email)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}
