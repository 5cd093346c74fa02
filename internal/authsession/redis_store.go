package authsession

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// RedisStore keeps auth sessions in Redis with a TTL, so multiple instances
// can share login state. Entries expire on their own; nothing here is durable.
type RedisStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisStore(client *redisv9.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(id string) (*Session, error) {
	raw, err := s.client.Get(context.Background(), s.key(id)).Result()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get auth session failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("unmarshal auth session failed: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Save(session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal auth session failed: %w", err)
	}
	if err := s.client.Set(context.Background(), s.key(session.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set auth session failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(id string) error {
	if err := s.client.Del(context.Background(), s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete auth session failed: %w", err)
	}
	return nil
}

func (s *RedisStore) key(id string) string {
	return "auth:session:" + id
}
