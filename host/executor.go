package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	adapter "github.com/runnable-dev/runnable-sdk/infrastructure/wazero"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Executor manages a runtime and the guest modules loaded into it.
type Executor struct {
	runtime          wazero.Runtime
	registry         *hostfuncs.HandlerRegistry
	logger           *slog.Logger
	stderr           io.Writer
	adapterOpts      []adapter.AdapterOption
	memoryLimitPages uint32
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		logger: slog.Default(),
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}

	// Default registry if not provided
	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry(hostfuncs.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if e.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(e.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	adapterOpts := append([]adapter.AdapterOption{adapter.WithLogger(e.logger)}, e.adapterOpts...)
	if err := adapter.RegisterWithRuntime(ctx, rt, e.registry, adapterOpts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases the runtime and every module loaded into it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadModule compiles and instantiates a guest under name. Names must be
// unique within an executor.
func (e *Executor) LoadModule(ctx context.Context, name string, wasmBytes []byte) (*Instance, error) {
	modCfg := wazero.NewModuleConfig().
		WithName(name).
		WithStderr(e.stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithStartFunctions()

	mod, err := e.runtime.InstantiateWithConfig(adapter.WithModuleName(ctx, name), wasmBytes, modCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module %q: %w", name, err)
	}

	// Reactor modules (built with -buildmode=c-shared) initialize the Go
	// runtime here.
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	e.logger.DebugContext(ctx, "host: module loaded", "module", name)
	return &Instance{name: name, module: mod, logger: e.logger}, nil
}
