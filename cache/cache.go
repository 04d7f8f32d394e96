// Package cache reads and writes the host's key/value cache.
//
// Values are opaque bytes. Keys are strings; a ttl is in seconds and any
// value <= 0 (see NoExpiry) keeps the entry until the host evicts it.
package cache

import (
	"context"

	"github.com/runnable-dev/runnable-sdk/domain/ports"
	"github.com/runnable-dev/runnable-sdk/ffi"
	"github.com/runnable-dev/runnable-sdk/infrastructure/wasm"
)

// NoExpiry stores an entry without a time-to-live.
const NoExpiry int32 = 0

// callConfig holds the configuration for a cache call.
// This struct is unexported to enforce the functional options pattern.
type callConfig struct {
	host   ports.HostBoundary
	errMap ffi.ErrorMap
}

func defaultCallConfig() callConfig {
	return callConfig{
		host:   wasm.NewHostAdapter(),
		errMap: ffi.DefaultErrorMap(),
	}
}

// Option configures a cache call.
type Option func(*callConfig)

// WithHost sets the host boundary to use.
// This is useful for injecting a stub (see package hosttest) during testing.
func WithHost(h ports.HostBoundary) Option {
	return func(c *callConfig) {
		if h != nil {
			c.host = h
		}
	}
}

// WithErrorMap replaces the sentinel-to-error mapping.
func WithErrorMap(m ffi.ErrorMap) Option {
	return func(c *callConfig) {
		if m != nil {
			c.errMap = m
		}
	}
}

func client(opts []Option) *ffi.Client {
	cfg := defaultCallConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return ffi.NewClient(cfg.host, ffi.WithErrorMap(cfg.errMap))
}

// Set stores value under key for ttl seconds.
// It fails only if key or value cannot be passed to the host.
func Set(ctx context.Context, key string, value []byte, ttl int32, opts ...Option) error {
	return client(opts).CacheSet(ctx, []byte(key), value, ttl)
}

// Get returns the bytes stored under key. A missing or expired key yields an
// error matching errors.Is(err, errors.ErrNotFound) from domain/errors.
func Get(ctx context.Context, key string, opts ...Option) ([]byte, error) {
	return client(opts).CacheGet(ctx, []byte(key))
}
