package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/ffi"
	"github.com/runnable-dev/runnable-sdk/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	host := hosttest.New()

	require.NoError(t, Set(ctx, "user:1", []byte(`{"name":"a"}`), 3600, WithHost(host)))

	got, err := Get(ctx, "user:1", WithHost(host))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"a"}`), got)

	assert.Equal(t, []string{
		hosttest.PrimitiveCacheSet,
		hosttest.PrimitiveCacheGet,
		hosttest.PrimitiveFetchResult,
	}, host.Primitives())
}

func TestSet_NoExpiry(t *testing.T) {
	host := hosttest.New()
	require.NoError(t, Set(context.Background(), "k", []byte("v"), NoExpiry, WithHost(host)))

	ttl, ok := host.TTL("k")
	require.True(t, ok)
	assert.Equal(t, int32(0), ttl)
}

func TestGet_EmptyValue(t *testing.T) {
	ctx := context.Background()
	host := hosttest.New()
	require.NoError(t, Set(ctx, "empty", nil, NoExpiry, WithHost(host)))

	got, err := Get(ctx, "empty", WithHost(host))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGet_Miss(t *testing.T) {
	_, err := Get(context.Background(), "nope", WithHost(hosttest.New()))

	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestGet_HostFailure(t *testing.T) {
	host := hosttest.New()
	host.OnCacheGet = func(string) ([]byte, int32) { return nil, entities.SentinelHostInvocation }

	_, err := Get(context.Background(), "k", WithHost(host))

	var hostErr *domainerrors.HostInvocationError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, entities.OpCacheGet, hostErr.Op)
}

func TestWithErrorMap(t *testing.T) {
	host := hosttest.New()
	host.OnCacheGet = func(string) ([]byte, int32) { return nil, -7 }

	_, err := Get(context.Background(), "k", WithHost(host),
		WithErrorMap(ffi.ErrorMap{-7: entities.ErrorKindNotFound}))
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestOptions_NilIgnored(t *testing.T) {
	cfg := defaultCallConfig()
	WithHost(nil)(&cfg)
	WithErrorMap(nil)(&cfg)

	assert.NotNil(t, cfg.host)
	assert.Equal(t, ffi.DefaultErrorMap(), cfg.errMap)
}
