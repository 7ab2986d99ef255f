package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/yatube/config"
)

const scanBatch = 100

// RedisStore 所有 key 带上 prefix，Clear 只删除该前缀下的 key
type RedisStore struct {
	client *redis.Client
	prefix string
	counters
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisClient 连接并 ping，失败时返回错误交由调用方降级
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.record(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	s.record(true)
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, val, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan %s*: %w", s.prefix, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cached pages: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Counters reports cache hits and misses seen by this store.
func (s *RedisStore) Counters() Counters { return s.snapshot() }

// ResetCounters clears recorded hit counters.
func (s *RedisStore) ResetCounters() { s.reset() }
