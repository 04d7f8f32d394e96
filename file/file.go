// Package file reads static files bundled with the host.
//
// The host decides what is bundled; a guest can only read by name. A missing
// file reports domain/errors.ErrNotFound.
package file

import (
	"context"

	"github.com/runnable-dev/runnable-sdk/domain/ports"
	"github.com/runnable-dev/runnable-sdk/ffi"
	"github.com/runnable-dev/runnable-sdk/infrastructure/wasm"
)

type callConfig struct {
	host   ports.HostBoundary
	errMap ffi.ErrorMap
}

// Option configures a file read.
type Option func(*callConfig)

// WithHost sets the host boundary to use.
func WithHost(h ports.HostBoundary) Option {
	return func(c *callConfig) {
		if h != nil {
			c.host = h
		}
	}
}

// WithErrorMap replaces the sentinel-to-error mapping.
func WithErrorMap(m ffi.ErrorMap) Option {
	return func(c *callConfig) {
		if m != nil {
			c.errMap = m
		}
	}
}

// GetStatic returns the contents of the static file name. An empty file is a
// successful, empty result.
func GetStatic(ctx context.Context, name string, opts ...Option) ([]byte, error) {
	cfg := callConfig{errMap: ffi.DefaultErrorMap()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.host == nil {
		cfg.host = wasm.NewHostAdapter()
	}
	return ffi.NewClient(cfg.host, ffi.WithErrorMap(cfg.errMap)).GetStaticFile(ctx, []byte(name))
}
