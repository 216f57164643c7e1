package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "auth_state:"

// StateStore holds one-time OAuth anti-forgery states. A state is deleted
// on first validation whatever the outcome, so a replayed callback fails.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *StateStore) GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *StateStore) SaveState(ctx context.Context, state string) error {
	record := OAuthState{
		State:     state,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return s.client.Set(ctx, stateKeyPrefix+state, data, s.ttl).Err()
}

// ConsumeState validates and burns a state token in one step.
func (s *StateStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	key := stateKeyPrefix + state

	// GETDEL makes the read and burn atomic, so two concurrent callbacks
	// carrying the same state cannot both validate.
	data, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get state: %w", err)
	}

	var record OAuthState
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return false, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	if time.Now().After(record.ExpiresAt) {
		return false, nil
	}

	return true, nil
}
