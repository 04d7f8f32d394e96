package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	// DefaultModuleName is the import module guests bind the primitives from.
	DefaultModuleName = "env"

	// DefaultMaxRequestSize bounds any single region read from guest memory.
	DefaultMaxRequestSize = 1 * 1024 * 1024
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives adapter diagnostics and guest log_msg records.
	Logger *slog.Logger

	// ModuleName is the host module name (default: "env").
	ModuleName string

	// CustomHandlers are exported alongside the protocol primitives.
	CustomHandlers []CustomHandler

	// MaxRequestSize limits the size of any key, name, value, or log payload
	// read from guest memory. Default is 1MB.
	MaxRequestSize uint32
}

// CustomHandler is an additional host function exported from the same module.
type CustomHandler struct {
	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// Name is the exported function name.
	Name string

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithHostModuleName sets the host module name (default: "env").
func WithHostModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum region size read from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithLogger sets the adapter logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: DefaultMaxRequestSize,
		Logger:         slog.Default(),
	}
}

const i32 = api.ValueTypeI32

// RegisterWithRuntime instantiates the host module exporting every protocol
// primitive, each backed by registry. Operations with no handler in registry
// still resolve at link time and fail at call time with the host invocation
// sentinel.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	if registry == nil {
		return fmt.Errorf("wazero: nil handler registry")
	}

	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &hostModule{registry: registry, cfg: cfg}
	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	export := func(name string, fn api.GoModuleFunc, params, results []api.ValueType) {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(fn, params, results).
			WithParameterNames(paramNames[name]...).
			Export(name)
	}

	export("cache_set", h.cacheSet, []api.ValueType{i32, i32, i32, i32, i32}, nil)
	export("cache_get", h.cacheGet, []api.ValueType{i32, i32}, []api.ValueType{i32})
	export("db_exec", h.dbExec, []api.ValueType{i32, i32, i32}, []api.ValueType{i32})
	export("graphql_query", h.graphqlQuery, []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32})
	export("get_static_file", h.getStaticFile, []api.ValueType{i32, i32}, []api.ValueType{i32})
	export("add_var", h.addVar, []api.ValueType{i32, i32, i32, i32}, nil)
	export("fetch_result", h.fetchResult, []api.ValueType{i32, i32}, nil)
	export("log_msg", h.logMsg, []api.ValueType{i32, i32, i32}, nil)

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("wazero: instantiate host module %q: %w", cfg.ModuleName, err)
	}
	return nil
}

var paramNames = map[string][]string{
	"cache_set":       {"key_ptr", "key_len", "val_ptr", "val_len", "ttl"},
	"cache_get":       {"key_ptr", "key_len"},
	"db_exec":         {"query_kind", "name_ptr", "name_len"},
	"graphql_query":   {"endpoint_ptr", "endpoint_len", "query_ptr", "query_len"},
	"get_static_file": {"name_ptr", "name_len"},
	"add_var":         {"name_ptr", "name_len", "val_ptr", "val_len"},
	"fetch_result":    {"dest_ptr", "size"},
	"log_msg":         {"ptr", "len", "level"},
}
