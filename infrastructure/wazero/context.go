package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

type moduleNameKey struct{}

// WithModuleName names the guest making host calls in ctx. Adapter log lines
// carry it.
func WithModuleName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, moduleNameKey{}, name)
}

// ModuleNameFromContext returns the name set by WithModuleName.
func ModuleNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(moduleNameKey{}).(string)
	return name, ok
}

// GetModuleName returns the guest name for a host call: the name in ctx when
// set, else the instantiated module's name.
func GetModuleName(ctx context.Context, mod api.Module) string {
	if name, ok := ModuleNameFromContext(ctx); ok {
		return name
	}
	if mod != nil {
		return mod.Name()
	}
	return ""
}
