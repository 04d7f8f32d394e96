package ports

import (
	"context"
	"time"
)

// CacheStore is the host-side cache backend.
// Get returns an error matching errors.ErrNotFound on a miss.
type CacheStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}
