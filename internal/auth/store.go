package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshRevoked indicates the refresh token was rotated out or revoked.
var ErrRefreshRevoked = errors.New("auth: refresh token revoked")

// RefreshStore tracks live refresh-token ids in Redis so tokens can be
// rotated on use and revoked on logout. A jti missing from the store is
// treated as revoked regardless of its signature.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

// Register records a freshly issued refresh-token id.
func (s *RefreshStore) Register(ctx context.Context, jti, userID string) error {
	if err := s.client.Set(ctx, s.key(jti), userID, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: register refresh token: %w", err)
	}
	return nil
}

// Consume atomically retires a refresh-token id. It fails with
// ErrRefreshRevoked when the id is unknown, which also defeats replay of a
// previously rotated token.
func (s *RefreshStore) Consume(ctx context.Context, jti string) error {
	deleted, err := s.client.Del(ctx, s.key(jti)).Result()
	if err != nil {
		return fmt.Errorf("auth: consume refresh token: %w", err)
	}
	if deleted == 0 {
		return ErrRefreshRevoked
	}
	return nil
}

// Revoke removes a refresh-token id without caring whether it existed.
func (s *RefreshStore) Revoke(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, s.key(jti)).Err(); err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}

func (s *RefreshStore) key(jti string) string {
	return "refresh:" + jti
}
