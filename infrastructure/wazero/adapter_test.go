package wazero

import (
	"bytes"
	"context"
	"testing"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	"github.com/runnable-dev/runnable-sdk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	assert.Equal(t, "env", cfg.ModuleName)
	assert.Equal(t, uint32(DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger)
}

func TestAdapterOptions(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithHostModuleName("custom_module")(&cfg)
	WithMaxRequestSize(2048)(&cfg)
	WithLogger(nil)(&cfg)
	WithCustomHandler(CustomHandler{Name: "test_handler"})(&cfg)

	assert.Equal(t, "custom_module", cfg.ModuleName)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger, "nil logger is ignored")
	require.Len(t, cfg.CustomHandlers, 1)
	assert.Equal(t, "test_handler", cfg.CustomHandlers[0].Name)
}

func TestRegisterWithRuntime_NilRegistry(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	assert.Error(t, RegisterWithRuntime(ctx, rt, nil))
}

var (
	sigCacheSet = testutil.Sig(testutil.Params(testutil.I32, testutil.I32, testutil.I32, testutil.I32, testutil.I32))
	sigCacheGet = testutil.Sig(testutil.Params(testutil.I32, testutil.I32), testutil.I32)
	sigDBExec   = testutil.Sig(testutil.Params(testutil.I32, testutil.I32, testutil.I32), testutil.I32)
	sigGraphQL  = testutil.Sig(testutil.Params(testutil.I32, testutil.I32, testutil.I32, testutil.I32), testutil.I32)
	sigStatic   = testutil.Sig(testutil.Params(testutil.I32, testutil.I32), testutil.I32)
	sigAddVar   = testutil.Sig(testutil.Params(testutil.I32, testutil.I32, testutil.I32, testutil.I32))
	sigFetch    = testutil.Sig(testutil.Params(testutil.I32, testutil.I32))
	sigLog      = testutil.Sig(testutil.Params(testutil.I32, testutil.I32, testutil.I32))
)

// guest is an instantiated module that re-exports every primitive, so tests
// can drive the host module exactly as compiled guest code would.
type guest struct {
	t   *testing.T
	mod api.Module
	ctx context.Context
	s   *hostfuncs.Session
}

func newGuest(t *testing.T, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) *guest {
	t.Helper()
	ctx := context.Background()

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	require.NoError(t, RegisterWithRuntime(ctx, rt, registry, opts...))

	m := testutil.NewModule()
	m.Forward("env", "cache_set", sigCacheSet)
	m.Forward("env", "cache_get", sigCacheGet)
	m.Forward("env", "db_exec", sigDBExec)
	m.Forward("env", "graphql_query", sigGraphQL)
	m.Forward("env", "get_static_file", sigStatic)
	m.Forward("env", "add_var", sigAddVar)
	m.Forward("env", "fetch_result", sigFetch)
	m.Forward("env", "log_msg", sigLog)
	m.Memory(1)

	mod, err := rt.InstantiateWithConfig(ctx, m.Bytes(), wazero.NewModuleConfig().WithName("guest"))
	require.NoError(t, err, m.String())

	s := hostfuncs.NewSession()
	return &guest{t: t, mod: mod, ctx: hostfuncs.WithSession(ctx, s), s: s}
}

// put writes b at offset and returns the (ptr, len) call arguments.
func (g *guest) put(offset uint32, b []byte) (uint64, uint64) {
	g.t.Helper()
	require.True(g.t, g.mod.Memory().Write(offset, b))
	return uint64(offset), uint64(len(b))
}

func (g *guest) call(name string, params ...uint64) int32 {
	g.t.Helper()
	res, err := g.mod.ExportedFunction(name).Call(g.ctx, params...)
	require.NoError(g.t, err)
	if len(res) == 0 {
		return 0
	}
	return api.DecodeI32(res[0])
}

func (g *guest) fetch(size int32) []byte {
	g.t.Helper()
	const dest = 32 * 1024
	g.call("fetch_result", dest, api.EncodeI32(size))
	out, ok := g.mod.Memory().Read(dest, uint32(size)) //nolint:gosec // G115: size >= 0 in tests
	require.True(g.t, ok)
	return bytes.Clone(out)
}

type mapStore map[string][]byte

func (m mapStore) Handlers() map[entities.Operation]hostfuncs.Handler {
	return map[entities.Operation]hostfuncs.Handler{
		entities.OpCacheSet: func(_ context.Context, req *entities.HostRequest) ([]byte, error) {
			m[string(req.Key)] = req.Value
			return nil, nil
		},
		entities.OpCacheGet: func(_ context.Context, req *entities.HostRequest) ([]byte, error) {
			if v, ok := m[string(req.Key)]; ok {
				return v, nil
			}
			return nil, &domainerrors.NotFoundError{Op: entities.OpCacheGet, Target: string(req.Key)}
		},
	}
}
