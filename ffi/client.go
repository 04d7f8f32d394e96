package ffi

import (
	"context"
	"fmt"
	"sync"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// inflight serializes logical operations. Host-side argument registration is
// shared state, so registrations for two operations must never interleave.
var inflight sync.Mutex

// clientConfig holds the configuration for a Client.
type clientConfig struct {
	errMap ErrorMap
	alloc  Allocator
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		errMap: DefaultErrorMap(),
		alloc:  defaultAllocator,
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithErrorMap replaces the sentinel mapping. A nil map is ignored. The map
// is validated by NewClient; an invalid map fails every call.
func WithErrorMap(m ErrorMap) Option {
	return func(c *clientConfig) {
		if m != nil {
			c.errMap = m
		}
	}
}

// WithAllocator sets the allocator used for result buffers.
// This is useful for observing allocations in tests.
func WithAllocator(a Allocator) Option {
	return func(c *clientConfig) {
		if a != nil {
			c.alloc = a
		}
	}
}

// Client runs complete host operations: initiate, then retrieve.
type Client struct {
	initiator *Initiator
	retriever *Retriever
	err       error
}

// NewClient creates a Client bound to host.
func NewClient(host ports.HostBoundary, opts ...Option) *Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Client{
		initiator: NewInitiator(host),
		retriever: NewRetriever(host, cfg.errMap, cfg.alloc),
	}
	if err := cfg.errMap.Validate(); err != nil {
		c.err = fmt.Errorf("ffi: %w", err)
	}
	return c
}

// Err reports a configuration error detected by NewClient.
func (c *Client) Err() error {
	return c.err
}

// Do performs req and returns its result. OpCacheSet returns a nil result.
// A context that is already done prevents the call; a call in progress is
// never interrupted.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inflight.Lock()
	defer inflight.Unlock()

	size, err := c.initiator.Initiate(req)
	if err != nil {
		return nil, err
	}
	if !req.Op.ProducesResult() {
		return nil, nil
	}

	return c.retriever.Retrieve(req.Op, req.Target(), size)
}

// CacheSet stores value under key for ttl seconds. A ttl <= 0 means no expiry.
func (c *Client) CacheSet(ctx context.Context, key, value []byte, ttl int32) error {
	_, err := c.Do(ctx, Request{Op: entities.OpCacheSet, Name: key, Value: value, TTL: ttl})
	return err
}

// CacheGet returns the raw bytes stored under key.
func (c *Client) CacheGet(ctx context.Context, key []byte) ([]byte, error) {
	return c.Do(ctx, Request{Op: entities.OpCacheGet, Name: key})
}

// DBExec runs the named query with args, registered in order.
func (c *Client) DBExec(ctx context.Context, kind entities.QueryType, name []byte, args []entities.QueryArg) ([]byte, error) {
	op, ok := kind.Operation()
	if !ok {
		op = entities.Operation("db_" + kind.String())
	}
	return c.Do(ctx, Request{Op: op, Name: name, Args: args})
}

// GraphQLQuery sends query to endpoint and returns the raw response.
func (c *Client) GraphQLQuery(ctx context.Context, endpoint, query []byte) ([]byte, error) {
	return c.Do(ctx, Request{Op: entities.OpGraphQLQuery, Name: endpoint, Value: query})
}

// GetStaticFile returns the contents of a file bundled with the host.
func (c *Client) GetStaticFile(ctx context.Context, name []byte) ([]byte, error) {
	return c.Do(ctx, Request{Op: entities.OpGetStaticFile, Name: name})
}
