package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	adapter "github.com/runnable-dev/runnable-sdk/infrastructure/wazero"
	"github.com/runnable-dev/runnable-sdk/internal/abi"
	"github.com/runnable-dev/runnable-sdk/internal/wasmcontext"
	"github.com/tetratelabs/wazero/api"
)

// DefaultExport is the function every runnable guest exports.
const DefaultExport = "run"

// Instance is a loaded guest. A guest runs one call at a time; concurrent
// Run calls on the same Instance are serialized.
type Instance struct {
	module api.Module
	logger *slog.Logger
	name   string
	mu     sync.Mutex
}

// GuestError is a failure reported by the guest in its RunResult.
type GuestError struct {
	Detail *entities.ErrorDetail
	Module string
}

func (e *GuestError) Error() string {
	return fmt.Sprintf("module %s: %s", e.Module, e.Detail.Error())
}

// Unwrap exposes the guest's error detail.
func (e *GuestError) Unwrap() error {
	return e.Detail
}

// Is reports a guest-side absence as domain/errors.ErrNotFound.
func (e *GuestError) Is(target error) bool {
	return target == domainerrors.ErrNotFound && e.Detail.IsNotFound
}

// Name returns the module name.
func (i *Instance) Name() string {
	return i.name
}

// Run calls export with input inside a fresh session and returns the guest's
// output. A failure the guest reports is returned as *GuestError.
func (i *Instance) Run(ctx context.Context, export string, input []byte) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	fn := i.module.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("module %s: export %q not found", i.name, export)
	}

	payload, err := json.Marshal(entities.RunRequest{
		Context: wasmcontext.ContextToWire(ctx),
		Input:   input,
	})
	if err != nil {
		return nil, fmt.Errorf("module %s: encode run request: %w", i.name, err)
	}

	session := hostfuncs.NewSession()
	callCtx := hostfuncs.WithSession(adapter.WithModuleName(ctx, i.name), session)

	ptr, err := i.write(callCtx, payload)
	if err != nil {
		return nil, err
	}

	results, err := fn.Call(callCtx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("module %s: call %s: %w", i.name, export, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("module %s: %s returned no result", i.name, export)
	}

	if n := len(session.Vars()); n > 0 {
		i.logger.WarnContext(ctx, "host: guest left query arguments unconsumed", "module", i.name, "count", n)
	}

	var result entities.RunResult
	if err := i.readResult(callCtx, results[0], &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, &GuestError{Module: i.name, Detail: result.Error}
	}
	if result.Output == nil {
		result.Output = []byte{}
	}
	return result.Output, nil
}

// write copies data into memory obtained from the guest's allocate export.
func (i *Instance) write(ctx context.Context, data []byte) (uint32, error) {
	allocate := i.module.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("module %s: guest does not export 'allocate'", i.name)
	}
	res, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("module %s: failed to allocate in guest: %w", i.name, err)
	}
	if len(res) == 0 {
		return 0, errors.New("allocate returned no results")
	}
	ptr := api.DecodeU32(res[0])
	if !i.module.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("module %s: failed to write input to guest memory", i.name)
	}
	return ptr, nil
}

// readResult decodes the packed result region and releases it.
func (i *Instance) readResult(ctx context.Context, packed uint64, v any) error {
	ptr, length := uint32(packed>>abi.PtrHighBits), uint32(packed) //nolint:gosec // G115: packed halves are 32-bit
	if ptr == 0 || length == 0 {
		return fmt.Errorf("module %s: null response from guest", i.name)
	}

	data, ok := i.module.Memory().Read(ptr, length)
	if !ok {
		return fmt.Errorf("module %s: %w", i.name, &domainerrors.MemoryError{
			Offset: ptr, Length: length, Size: i.module.Memory().Size(),
		})
	}
	err := json.Unmarshal(data, v)

	if dealloc := i.module.ExportedFunction("deallocate"); dealloc != nil {
		if _, derr := dealloc.Call(ctx, uint64(ptr), uint64(length)); derr != nil {
			i.logger.WarnContext(ctx, "host: guest deallocate failed", "module", i.name, "error", derr)
		}
	}

	if err != nil {
		return fmt.Errorf("module %s: decode run result: %w", i.name, err)
	}
	return nil
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}
