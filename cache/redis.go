package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

const scanCount = 200

// RedisStore is a Store backed by go-redis. Pattern listing uses SCAN, never KEYS.
type RedisStore struct {
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. Pooling stays with the client.
func NewRedisStore(c redis.UniversalClient) *RedisStore { return &RedisStore{client: c} }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, errors.Join(berr.ErrCacheUnavailable, err))
	}

	return b, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, errors.Join(berr.ErrCacheUnavailable, err))
	}

	return nil
}

func (r *RedisStore) Del(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", errors.Join(berr.ErrCacheUnavailable, err))
	}

	return int(n), nil
}

func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, errors.Join(berr.ErrCacheUnavailable, err))
	}

	return keys, nil
}

// RedisConfig configures DialRedis.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// DialRedis connects to Redis, pings it and returns a store with a cleanup that closes the client.
func DialRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, func(), error) {
	if cfg.Addr == "" {
		return nil, nil, fmt.Errorf("%w: redis addr required", berr.ErrCacheUnavailable)
	}

	c := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("%w: redis ping: %w", berr.ErrCacheUnavailable, err)
	}

	cleanup := func() { _ = c.Close() } //nolint:errcheck // best-effort shutdown

	return NewRedisStore(c), cleanup, nil
}
