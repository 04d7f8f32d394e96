package hostfuncs

import (
	"context"
	"sync"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// memStore is a map-backed ports.CacheStore that records TTLs.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, &domainerrors.NotFoundError{Op: entities.OpCacheGet, Target: key}
	}
	return v, nil
}

func (m *memStore) Close() error { return nil }

// queryFunc adapts a function to ports.QueryExecutor.
type queryFunc func(ctx context.Context, kind entities.QueryType, name string, args []entities.QueryArg) ([]byte, error)

func (f queryFunc) Exec(ctx context.Context, kind entities.QueryType, name string, args []entities.QueryArg) ([]byte, error) {
	return f(ctx, kind, name, args)
}

func (f queryFunc) Close() error { return nil }

// graphqlFunc adapts a function to ports.GraphQLClient.
type graphqlFunc func(ctx context.Context, endpoint, query string) ([]byte, error)

func (f graphqlFunc) Do(ctx context.Context, endpoint, query string) ([]byte, error) {
	return f(ctx, endpoint, query)
}

func echo(_ context.Context, req *entities.HostRequest) ([]byte, error) {
	return []byte(req.Op), nil
}
