package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// AuthSessionDuration is 7 days
	AuthSessionDuration = 7 * 24 * time.Hour
	// AuthSessionKeyPrefix is the Redis key prefix for issued token ids
	AuthSessionKeyPrefix = "session:"
	// UserSessionsKeyPrefix indexes the token ids of one user
	UserSessionsKeyPrefix = "user_sessions:"
)

// TokenStore is the Redis allowlist of issued tokens. A signed token is only
// accepted while its id is present here, which makes sign-out immediate.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

// Create records a token id for a user with a 7-day expiration
func (s *TokenStore) Create(ctx context.Context, tokenID, userID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, AuthSessionKeyPrefix+tokenID, userID, AuthSessionDuration)
	pipe.SAdd(ctx, UserSessionsKeyPrefix+userID, tokenID)
	pipe.Expire(ctx, UserSessionsKeyPrefix+userID, AuthSessionDuration)
	_, err := pipe.Exec(ctx)
	return err
}

// Validate checks that a token id is live and returns the user it was issued to
func (s *TokenStore) Validate(ctx context.Context, tokenID string) (string, bool, error) {
	if tokenID == "" {
		return "", false, nil
	}
	userID, err := s.rdb.Get(ctx, AuthSessionKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// Revoke removes a single token id
func (s *TokenStore) Revoke(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	userID, err := s.rdb.Get(ctx, AuthSessionKeyPrefix+tokenID).Result()
	if err == nil && userID != "" {
		s.rdb.SRem(ctx, UserSessionsKeyPrefix+userID, tokenID)
	}
	return s.rdb.Del(ctx, AuthSessionKeyPrefix+tokenID).Err()
}

// RevokeUser removes every token issued to a user (used on deactivation)
func (s *TokenStore) RevokeUser(ctx context.Context, userID string) error {
	setKey := UserSessionsKeyPrefix + userID
	tokenIDs, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	keys := make([]string, 0, len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, AuthSessionKeyPrefix+id)
	}
	keys = append(keys, setKey)
	return s.rdb.Del(ctx, keys...).Err()
}
