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

const sessionKeyPrefix = "login_session:"

// SessionStore holds the portal's login sessions in redis with a sliding
// expiry.
type SessionStore struct {
	client          *redis.Client
	sessionDuration time.Duration
}

func NewSessionStore(client *redis.Client, sessionDuration time.Duration) *SessionStore {
	return &SessionStore{
		client:          client,
		sessionDuration: sessionDuration,
	}
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *SessionStore) CreateSession(ctx context.Context, userID, email string) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		Email:     email,
		ExpiresAt: time.Now().Add(s.sessionDuration),
		CreatedAt: time.Now(),
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		s.DeleteSession(ctx, sessionID)
		return nil, fmt.Errorf("session expired")
	}

	return &session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// RefreshSession slides the expiry forward by the full session duration.
func (s *SessionStore) RefreshSession(ctx context.Context, sessionID string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	session.ExpiresAt = time.Now().Add(s.sessionDuration)
	return s.save(ctx, session)
}

func (s *SessionStore) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.client.Set(ctx, sessionKeyPrefix+session.ID, data, s.sessionDuration).Err()
}
