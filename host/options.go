package host

import (
	"io"
	"log/slog"

	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	adapter "github.com/runnable-dev/runnable-sdk/infrastructure/wazero"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithRegistry configures the executor with a host function registry.
// Without one, every trigger primitive fails with the host invocation
// sentinel.
func WithRegistry(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the logger for executor diagnostics and guest log records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMemoryLimitPages caps each guest's linear memory, in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = pages
	}
}

// WithMaxRequestSize bounds any region the host reads from guest memory.
func WithMaxRequestSize(size uint32) Option {
	return func(e *Executor) {
		e.adapterOpts = append(e.adapterOpts, adapter.WithMaxRequestSize(size))
	}
}

// WithStderr redirects guest stderr (default os.Stderr).
func WithStderr(w io.Writer) Option {
	return func(e *Executor) {
		e.stderr = w
	}
}
