package redis

// Package redis provides the Redis-backed persisted access token for the portal.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// DefaultTokenKey is the single key the portal persists its access token under.
const DefaultTokenKey = "portal:access_token"

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps the current access token in one Redis key.
// The key's TTL follows the session expiry when one is known.
type TokenStore struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
}

type storedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	SavedAt     time.Time `json:"saved_at"`
}

// NewTokenStore creates a token store under DefaultTokenKey.
func NewTokenStore(client redis.UniversalClient) *TokenStore {
	return NewTokenStoreWithKey(client, DefaultTokenKey)
}

// NewTokenStoreWithKey creates a token store under a custom key.
func NewTokenStoreWithKey(client redis.UniversalClient, key string) *TokenStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenStore{client: client, key: key, now: time.Now}
}

func (s *TokenStore) Save(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("access token cannot be empty")
	}

	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
		if ttl <= 0 {
			return errors.New("access token is already expired")
		}
	}

	data, err := json.Marshal(storedToken{AccessToken: token, ExpiresAt: expiresAt, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal access token: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var tok storedToken
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		// Unreadable entries are dropped rather than resumed.
		if delErr := s.Delete(ctx); delErr != nil {
			return "", fmt.Errorf("discard malformed access token: %w", delErr)
		}
		return "", nil
	}

	// Redis TTL normally removes expired tokens; this covers clock skew.
	if !tok.ExpiresAt.IsZero() && !s.now().Before(tok.ExpiresAt) {
		if delErr := s.Delete(ctx); delErr != nil {
			return "", fmt.Errorf("cleanup expired access token: %w", delErr)
		}
		return "", nil
	}
	return tok.AccessToken, nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

// Key returns the Redis key this store writes.
func (s *TokenStore) Key() string { return s.key }
