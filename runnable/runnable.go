// Package runnable registers the guest's entry point.
//
// A guest module calls Use once, usually from main. The host invokes the
// module's run export with a request payload; the registered Runnable receives
// the input bytes and a context carrying the host's deadline and request ID.
//
//	func main() {
//	    runnable.Use(runnable.HandlerFunc(func(ctx context.Context, input []byte) ([]byte, error) {
//	        return cache.Get(ctx, string(input))
//	    }))
//	}
package runnable

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/internal/wasmcontext"
)

// Runnable is the guest's unit of work.
type Runnable interface {
	Run(ctx context.Context, input []byte) ([]byte, error)
}

// HandlerFunc adapts a function to Runnable.
type HandlerFunc func(ctx context.Context, input []byte) ([]byte, error)

// Run implements Runnable.
func (f HandlerFunc) Run(ctx context.Context, input []byte) ([]byte, error) {
	return f(ctx, input)
}

var registered struct {
	sync.RWMutex
	r Runnable
}

// Use registers r as the module's entry point, replacing any previous one.
func Use(r Runnable) {
	registered.Lock()
	defer registered.Unlock()
	registered.r = r
}

func current() Runnable {
	registered.RLock()
	defer registered.RUnlock()
	return registered.r
}

// invoke runs the registered Runnable for req. Errors and panics are reported
// in the result, never returned.
func invoke(req entities.RunRequest) (result entities.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			detail := entities.NewErrorDetail("panic", fmt.Sprintf("runnable panic: %v", r))
			detail.Stack = debug.Stack()
			slog.Error("sdk: runnable panic recovered", "error", detail.Message)
			result = entities.RunResult{Error: detail}
		}
	}()

	r := current()
	if r == nil {
		return entities.RunResult{Error: entities.NewErrorDetail("internal", "no runnable registered")}
	}

	ctx, cancel := wasmcontext.WireToContext(context.Background(), req.Context)
	defer cancel()

	out, err := r.Run(ctx, req.Input)
	if err != nil {
		slog.ErrorContext(ctx, "sdk: runnable returned error", "error", err.Error())
		return entities.RunResult{Error: errors.ToErrorDetail(err)}
	}
	if out == nil {
		out = []byte{}
	}
	return entities.RunResult{Output: out}
}
