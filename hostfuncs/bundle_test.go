package hostfuncs

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), TTLDuration(0))
	assert.Equal(t, time.Duration(0), TTLDuration(-5))
	assert.Equal(t, time.Hour, TTLDuration(3600))
}

func TestCacheBundle(t *testing.T) {
	store := newMemStore()
	handlers := CacheBundle(store, WithMaxEntrySize(8)).Handlers()
	require.Len(t, handlers, 2)
	ctx := context.Background()

	_, err := handlers[entities.OpCacheSet](ctx, &entities.HostRequest{
		Op: entities.OpCacheSet, Key: []byte("user:1"), Value: []byte("abc"), TTL: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, store.ttls["user:1"])

	got, err := handlers[entities.OpCacheGet](ctx, &entities.HostRequest{Op: entities.OpCacheGet, Key: []byte("user:1")})
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = handlers[entities.OpCacheSet](ctx, &entities.HostRequest{
		Op: entities.OpCacheSet, Key: []byte("big"), Value: []byte("123456789"),
	})
	var encErr *domainerrors.EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, 9, encErr.Length)

	_, err = handlers[entities.OpCacheGet](ctx, &entities.HostRequest{Op: entities.OpCacheGet, Key: []byte("big")})
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestDatabaseBundle(t *testing.T) {
	var gotKind entities.QueryType
	exec := queryFunc(func(_ context.Context, kind entities.QueryType, name string, args []entities.QueryArg) ([]byte, error) {
		gotKind = kind
		return []byte(name), nil
	})
	handlers := DatabaseBundle(exec).Handlers()

	resp, err := handlers[entities.OpDBSelect](context.Background(), &entities.HostRequest{
		Op: entities.OpDBSelect, Name: "getUser", QueryType: entities.QueryTypeSelect,
	})
	require.NoError(t, err)
	assert.Equal(t, "getUser", string(resp))
	assert.Equal(t, entities.QueryTypeSelect, gotKind)
	assert.Contains(t, handlers, entities.OpDBInsert)
}

func TestGraphQLBundle(t *testing.T) {
	client := graphqlFunc(func(_ context.Context, endpoint, query string) ([]byte, error) {
		return []byte(endpoint + "|" + query), nil
	})
	h := GraphQLBundle(client).Handlers()[entities.OpGraphQLQuery]

	resp, err := h(context.Background(), &entities.HostRequest{Endpoint: "http://e", Query: "{ x }"})
	require.NoError(t, err)
	assert.Equal(t, "http://e|{ x }", string(resp))
}

func TestFileBundle(t *testing.T) {
	fsys := fstest.MapFS{
		"welcome.txt":         {Data: []byte("hello")},
		"templates/mail.tmpl": {Data: []byte("Dear {{.Name}}")},
		"empty":               {Data: []byte{}},
	}
	h := FileBundle(fsys).Handlers()[entities.OpGetStaticFile]
	ctx := context.Background()

	tests := []struct {
		name    string
		want    string
		wantErr int32
	}{
		{name: "welcome.txt", want: "hello"},
		{name: "/welcome.txt", want: "hello"},
		{name: "templates/mail.tmpl", want: "Dear {{.Name}}"},
		{name: "empty", want: ""},
		{name: "missing.txt", wantErr: entities.SentinelNotFound},
		{name: "templates", wantErr: entities.SentinelNotFound},
		{name: "../etc/passwd", wantErr: entities.SentinelEncoding},
		{name: "templates/../welcome.txt", wantErr: entities.SentinelEncoding},
		{name: "", wantErr: entities.SentinelEncoding},
		{name: "/", wantErr: entities.SentinelEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h(ctx, &entities.HostRequest{Op: entities.OpGetStaticFile, Name: tt.name})
			if tt.wantErr != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, SentinelFor(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestBundles(t *testing.T) {
	all := Bundles(
		CacheBundle(newMemStore()),
		DatabaseBundle(queryFunc(nil)),
		GraphQLBundle(graphqlFunc(nil)),
		FileBundle(fstest.MapFS{}),
	)

	reg, err := NewRegistry(WithBundle(all))
	require.NoError(t, err)
	assert.ElementsMatch(t, entities.Operations(), reg.Operations())
}
