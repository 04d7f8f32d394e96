package cachestore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.CacheStore = (*Memory)(nil)

// envelopeSize is the expiry header stored in front of every value.
const envelopeSize = 8

// MemoryConfig configures the in-process store.
type MemoryConfig struct {
	// Shards must be a power of two.
	Shards int
	// LifeWindow bounds how long any entry is retained, including entries
	// stored without a ttl.
	LifeWindow time.Duration
	// CleanWindow is the interval between sweeps of old entries. Zero
	// disables the background sweep.
	CleanWindow time.Duration
	// HardMaxCacheSize caps memory use in MB. Zero means no cap.
	HardMaxCacheSize int
}

// DefaultMemoryConfig returns the configuration used when none is given.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Shards:      64,
		LifeWindow:  24 * time.Hour,
		CleanWindow: 5 * time.Minute,
	}
}

// Memory is a bigcache-backed CacheStore. bigcache has a single global life
// window, so per-entry ttls are kept in an expiry header in front of the value
// and checked on read.
type Memory struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

// NewMemory creates an in-process store.
func NewMemory(cfg MemoryConfig) (*Memory, error) {
	def := DefaultMemoryConfig()
	if cfg.Shards <= 0 {
		cfg.Shards = def.Shards
	}
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = def.LifeWindow
	}

	bc := bigcache.DefaultConfig(cfg.LifeWindow)
	bc.Shards = cfg.Shards
	bc.CleanWindow = cfg.CleanWindow
	bc.HardMaxCacheSize = cfg.HardMaxCacheSize
	bc.Verbose = false

	cache, err := bigcache.New(context.Background(), bc)
	if err != nil {
		return nil, fmt.Errorf("cachestore: create memory cache: %w", err)
	}
	return &Memory{cache: cache, now: time.Now}, nil
}

// Set implements ports.CacheStore. A ttl <= 0 stores the value without expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = m.now().Add(ttl).UnixNano()
	}

	entry := make([]byte, envelopeSize+len(value))
	binary.BigEndian.PutUint64(entry, uint64(expires)) //nolint:gosec // G115: unix nanos are positive
	copy(entry[envelopeSize:], value)

	if err := m.cache.Set(key, entry); err != nil {
		return fmt.Errorf("cachestore: set %q: %w", key, err)
	}
	return nil
}

// Get implements ports.CacheStore.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := m.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("cachestore: get %q: %w", key, err)
	}
	if len(entry) < envelopeSize {
		return nil, fmt.Errorf("cachestore: get %q: corrupt entry of %d bytes", key, len(entry))
	}

	expires := int64(binary.BigEndian.Uint64(entry)) //nolint:gosec // G115: written by Set
	if expires != 0 && m.now().UnixNano() >= expires {
		_ = m.cache.Delete(key)
		return nil, notFound(key)
	}
	return entry[envelopeSize:], nil
}

// Len returns the number of stored entries, including expired ones not yet
// read or swept.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Close implements ports.CacheStore.
func (m *Memory) Close() error {
	return m.cache.Close()
}

func notFound(key string) error {
	return &domainerrors.NotFoundError{Op: entities.OpCacheGet, Target: key}
}
