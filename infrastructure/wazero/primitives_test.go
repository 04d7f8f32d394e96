package wazero

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"testing"
	"testing/fstest"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

func TestPrimitives_CacheRoundTrip(t *testing.T) {
	store := mapStore{}
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(store))
	require.NoError(t, err)
	g := newGuest(t, reg)

	kp, kl := g.put(0, []byte("user:1"))
	vp, vl := g.put(64, []byte(`{"name":"a"}`))
	g.call("cache_set", kp, kl, vp, vl, api.EncodeI32(3600))
	assert.Equal(t, `{"name":"a"}`, string(store["user:1"]))

	size := g.call("cache_get", kp, kl)
	require.Equal(t, int32(12), size)
	assert.Equal(t, `{"name":"a"}`, string(g.fetch(size)))

	mp, ml := g.put(128, []byte("user:2"))
	assert.Equal(t, entities.SentinelNotFound, g.call("cache_get", mp, ml))
}

func TestPrimitives_DBExecConsumesVars(t *testing.T) {
	var got []entities.QueryArg
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithHandler(entities.OpDBInsert,
		func(_ context.Context, req *entities.HostRequest) ([]byte, error) {
			got = req.Args
			return []byte(`{"lastInsertID":1}`), nil
		}))
	require.NoError(t, err)
	g := newGuest(t, reg)

	np, nl := g.put(0, []byte("name"))
	vp, vl := g.put(16, []byte("alice"))
	g.call("add_var", np, nl, vp, vl)
	assert.Len(t, g.s.Vars(), 1)

	qp, ql := g.put(32, []byte("addUser"))
	size := g.call("db_exec", api.EncodeI32(int32(entities.QueryTypeInsert)), qp, ql)
	require.Equal(t, int32(18), size)
	assert.JSONEq(t, `{"lastInsertID":1}`, string(g.fetch(size)))
	assert.Equal(t, []entities.QueryArg{{Name: "name", Value: "alice"}}, got)
	assert.Empty(t, g.s.Vars())

	assert.Equal(t, entities.SentinelEncoding, g.call("db_exec", api.EncodeI32(9), qp, ql), "unknown query kind")
}

func TestPrimitives_GraphQL(t *testing.T) {
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithHandler(entities.OpGraphQLQuery,
		func(_ context.Context, req *entities.HostRequest) ([]byte, error) {
			return []byte(req.Endpoint + "|" + req.Query), nil
		}))
	require.NoError(t, err)
	g := newGuest(t, reg)

	ep, el := g.put(0, []byte("https://api.example/graphql"))
	qp, ql := g.put(64, []byte("{ me { id } }"))
	size := g.call("graphql_query", ep, el, qp, ql)
	assert.Equal(t, "https://api.example/graphql|{ me { id } }", string(g.fetch(size)))
}

func TestPrimitives_StaticFile(t *testing.T) {
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.FileBundle(fstest.MapFS{
		"config/app.json": {Data: []byte(`{"theme":"dark"}`)},
	})))
	require.NoError(t, err)
	g := newGuest(t, reg)

	np, nl := g.put(0, []byte("config/app.json"))
	size := g.call("get_static_file", np, nl)
	require.Equal(t, int32(16), size)
	assert.JSONEq(t, `{"theme":"dark"}`, string(g.fetch(size)))

	np, nl = g.put(0, []byte("config/none.json"))
	assert.Equal(t, entities.SentinelNotFound, g.call("get_static_file", np, nl))

	np, nl = g.put(0, []byte("../../etc/passwd"))
	assert.Equal(t, entities.SentinelEncoding, g.call("get_static_file", np, nl))

	assert.Equal(t, entities.SentinelEncoding, g.call("get_static_file", 65530, 16), "name past end of memory")
}

func TestPrimitives_MemoryFaults(t *testing.T) {
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(mapStore{}))
	require.NoError(t, err)
	g := newGuest(t, reg, WithMaxRequestSize(8))

	tests := []struct {
		name string
		ptr  uint64
		len  uint64
	}{
		{"past end of memory", 65530, 8},
		{"over max request size", 0, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, entities.SentinelEncoding, g.call("cache_get", tt.ptr, tt.len))
			_, staged := g.s.Staged()
			assert.False(t, staged)
		})
	}
}

func TestPrimitives_FetchResultBounds(t *testing.T) {
	var logs bytes.Buffer
	store := mapStore{"k": []byte("abcdefgh")}
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(store))
	require.NoError(t, err)
	g := newGuest(t, reg, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	kp, kl := g.put(0, []byte("k"))

	const dest = 1024
	blank := bytes.Repeat([]byte{0xEE}, 16)

	tests := []struct {
		name    string
		stage   bool
		size    int32
		want    string
		logLine string
	}{
		{"nothing staged, huge size", false, 1 << 30, string(blank), "out of bounds"},
		{"staged, huge size", true, 1 << 30, string(blank), "out of bounds"},
		{"shorter than staged", true, 4, "abcd" + string(blank[4:]), "does not match"},
		{"longer than staged", true, 16, "abcdefgh" + string(blank[8:]), "does not match"},
		{"exact", true, 8, "abcdefgh" + string(blank[8:]), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			g.put(dest, blank)
			if tt.stage {
				require.Equal(t, int32(8), g.call("cache_get", kp, kl))
			}

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			g.call("fetch_result", dest, api.EncodeI32(tt.size))
			runtime.ReadMemStats(&after)

			assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), "fetch_result must not allocate by guest size")
			got, ok := g.mod.Memory().Read(dest, 16)
			require.True(t, ok)
			assert.Equal(t, tt.want, string(got))
			_, staged := g.s.Staged()
			assert.False(t, staged, "fetch_result always consumes the staged result")
			if tt.logLine != "" {
				assert.Contains(t, logs.String(), tt.logLine)
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestPrimitives_NoSession(t *testing.T) {
	var buf bytes.Buffer
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(mapStore{}))
	require.NoError(t, err)
	g := newGuest(t, reg, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	g.ctx = context.Background()

	kp, kl := g.put(0, []byte("k"))
	assert.Equal(t, entities.SentinelHostInvocation, g.call("cache_get", kp, kl))
	assert.Contains(t, buf.String(), "host call without a session")
	assert.Contains(t, buf.String(), "module=guest")
}

func TestPrimitives_UnregisteredOperation(t *testing.T) {
	reg, err := hostfuncs.NewRegistry()
	require.NoError(t, err)
	g := newGuest(t, reg)

	ep, el := g.put(0, []byte("e"))
	assert.Equal(t, entities.SentinelHostInvocation, g.call("graphql_query", ep, el, ep, el))
}
