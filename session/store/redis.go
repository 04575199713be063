package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/reagent/session"
)

// RedisStore implements session storage using Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for sessions.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore creates a new Redis-based session store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "reagent:session:",
			TTL:    24 * time.Hour,
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Save persists a run record to Redis.
func (s *RedisStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	if err := s.client.Set(ctx, s.recordKey(record.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.client.SAdd(ctx, s.setKey(), record.ID).Err(); err != nil {
		return fmt.Errorf("failed to add session to index: %w", err)
	}
	return nil
}

// Load loads a run record from Redis.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.recordKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record session.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return &record, nil
}

// Delete removes a run record from Redis.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.recordKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	return nil
}

// List returns all record IDs.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + id
}

func (s *RedisStore) setKey() string {
	return s.prefix + "set"
}
