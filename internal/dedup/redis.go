package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"recorder-notifier/internal/common/errors"
)

const redisKeyPrefix = "dedup:event:"

// RedisConfig holds connection settings for the Redis dedup backend.
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// RedisStore is a Store backed by Redis, for deployments running more than
// one replica behind the same webhook. SET NX with a TTL gives the same
// atomic check-and-mark and autonomous eviction as the memory store.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to Redis and returns a store with the given
// retention window.
func NewRedisStore(config *RedisConfig, ttl time.Duration) (*RedisStore, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}, nil
}

// CheckAndMark records id and reports whether it was the first observation.
func (s *RedisStore) CheckAndMark(ctx context.Context, id string) (bool, error) {
	first, err := s.rdb.SetNX(ctx, redisKeyPrefix+id, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, errors.StoreError("failed to check event id", err).WithContext("event_id", id)
	}
	return first, nil
}

// Unmark forgets id so a retry of the same event is treated as new.
func (s *RedisStore) Unmark(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return errors.StoreError("failed to unmark event id", err).WithContext("event_id", id)
	}
	return nil
}

// Len returns the number of ids currently tracked.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	var count int
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, errors.StoreError("failed to scan event ids", err)
	}
	return count, nil
}

// Health pings the Redis server.
func (s *RedisStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
