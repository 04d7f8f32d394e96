package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.CacheStore = (*Redis)(nil)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces every key, so several hosts can share a database.
	KeyPrefix   string
	DialTimeout time.Duration
	// MaxRetries is passed to go-redis; -1 disables retries.
	MaxRetries int
}

// Redis is a CacheStore backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis store. The connection is established lazily; use
// Ping to check reachability up front.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("cachestore: redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	return &Redis{client: redis.NewClient(opts), prefix: cfg.KeyPrefix}, nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cachestore: failed to connect to redis: %w", err)
	}
	return nil
}

// Set implements ports.CacheStore. A ttl <= 0 stores the value without expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cachestore: set %q: %w", key, err)
	}
	return nil
}

// Get implements ports.CacheStore.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("cachestore: get %q: %w", key, err)
	}
	return value, nil
}

// Close implements ports.CacheStore.
func (r *Redis) Close() error {
	return r.client.Close()
}
