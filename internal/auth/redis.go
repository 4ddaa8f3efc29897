package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ SessionStore = (*RedisSessionStore)(nil)

const redisSessionPrefix = "jobsearch:session:"

// RedisSessionStore keeps session records as keys that expire with the token.
type RedisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, now: time.Now}
}

func redisSessionKey(userID string) string { return redisSessionPrefix + userID }

func (s *RedisSessionStore) Find(ctx context.Context, userID string) (*SessionToken, error) {
	raw, err := s.client.Get(ctx, redisSessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec SessionToken
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, token *SessionToken) error {
	if token == nil || token.UserID == "" {
		return ErrInvalidInput
	}
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisSessionKey(token.UserID), raw, ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Del(ctx, redisSessionKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpired is a no-op: redis evicts keys when their TTL lapses.
func (s *RedisSessionStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
