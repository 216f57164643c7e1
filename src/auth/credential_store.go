package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	credentialKeyPrefix = "credential:"
	resetTokenKeyPrefix = "reset_token:"
)

// ErrInvalidCredentials is returned when the email is unknown or the
// password does not match. Callers surface it as a form-level message,
// never a crash.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidResetToken is returned for unknown, expired, or reused reset
// tokens.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// CredentialStore keeps bcrypt password hashes for email/password
// sign-in, plus one-time password reset tokens.
type CredentialStore struct {
	client        *redis.Client
	resetTokenTTL time.Duration
}

func NewCredentialStore(client *redis.Client, resetTokenTTL time.Duration) *CredentialStore {
	return &CredentialStore{
		client:        client,
		resetTokenTTL: resetTokenTTL,
	}
}

// SetPassword hashes and stores the password for the email, creating or
// replacing the credential.
func (c *CredentialStore) SetPassword(ctx context.Context, email, password string) error {
	email = strings.ToLower(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	cred := Credential{
		Email:     email,
		Hash:      hash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	return c.client.Set(ctx, credentialKeyPrefix+email, data, 0).Err()
}

// Verify checks a password attempt. Unknown emails and wrong passwords
// both come back as ErrInvalidCredentials so the response does not reveal
// which accounts exist.
func (c *CredentialStore) Verify(ctx context.Context, email, password string) error {
	email = strings.ToLower(email)

	data, err := c.client.Get(ctx, credentialKeyPrefix+email).Result()
	if err == redis.Nil {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to get credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	if bcrypt.CompareHashAndPassword(cred.Hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}

	return nil
}

// HasCredential reports whether a password is registered for the email.
func (c *CredentialStore) HasCredential(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(email)

	n, err := c.client.Exists(ctx, credentialKeyPrefix+email).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check credential: %w", err)
	}
	return n > 0, nil
}

// CreateResetToken issues a one-time token the reset flow exchanges for a
// new password.
func (c *CredentialStore) CreateResetToken(ctx context.Context, email string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(b)

	email = strings.ToLower(email)
	if err := c.client.Set(ctx, resetTokenKeyPrefix+token, email, c.resetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to save reset token: %w", err)
	}

	return token, nil
}

// ConsumeResetToken burns the token and returns the email it was issued
// for.
func (c *CredentialStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := resetTokenKeyPrefix + token

	email, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to get reset token: %w", err)
	}

	c.client.Del(ctx, key)
	return email, nil
}
