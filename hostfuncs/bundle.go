package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// HostFuncBundle is a pre-configured set of related handlers.
type HostFuncBundle interface {
	Handlers() map[entities.Operation]Handler
}

// staticBundle implements HostFuncBundle with a fixed set of handlers.
type staticBundle struct {
	handlers map[entities.Operation]Handler
}

func (b *staticBundle) Handlers() map[entities.Operation]Handler {
	return b.handlers
}

// StaticBundle wraps a fixed handler map as a bundle.
func StaticBundle(handlers map[entities.Operation]Handler) HostFuncBundle {
	return &staticBundle{handlers: handlers}
}

// CacheOption configures CacheBundle.
type CacheOption func(*cacheBundleConfig)

type cacheBundleConfig struct {
	maxEntrySize int
}

// WithMaxEntrySize rejects cache_set values larger than n bytes.
// Zero or negative means no limit.
func WithMaxEntrySize(n int) CacheOption {
	return func(c *cacheBundleConfig) {
		c.maxEntrySize = n
	}
}

// TTLDuration converts a guest ttl in seconds to a duration.
// Any ttl <= 0 means no expiry and yields 0.
func TTLDuration(ttl int32) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return time.Duration(ttl) * time.Second
}

// CacheBundle returns handlers for cache_set and cache_get backed by store.
func CacheBundle(store ports.CacheStore, opts ...CacheOption) HostFuncBundle {
	var cfg cacheBundleConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return &staticBundle{
		handlers: map[entities.Operation]Handler{
			entities.OpCacheSet: func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
				if cfg.maxEntrySize > 0 && len(req.Value) > cfg.maxEntrySize {
					return nil, &domainerrors.EncodingError{Field: "value", Length: len(req.Value)}
				}
				return nil, store.Set(ctx, string(req.Key), req.Value, TTLDuration(req.TTL))
			},
			entities.OpCacheGet: func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
				return store.Get(ctx, string(req.Key))
			},
		},
	}
}

// DatabaseBundle returns handlers for named insert and select queries.
func DatabaseBundle(exec ports.QueryExecutor) HostFuncBundle {
	h := func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
		return exec.Exec(ctx, req.QueryType, req.Name, req.Args)
	}
	return &staticBundle{
		handlers: map[entities.Operation]Handler{
			entities.OpDBInsert: h,
			entities.OpDBSelect: h,
		},
	}
}

// GraphQLBundle returns the graphql_query handler backed by client.
func GraphQLBundle(client ports.GraphQLClient) HostFuncBundle {
	return &staticBundle{
		handlers: map[entities.Operation]Handler{
			entities.OpGraphQLQuery: func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
				return client.Do(ctx, req.Endpoint, req.Query)
			},
		},
	}
}

// FileBundle returns the get_static_file handler serving files from fsys.
// Names are slash-separated paths relative to the root of fsys; a leading
// slash is ignored. A missing file or a directory is absence, and a name that
// escapes the root is an encoding failure.
func FileBundle(fsys fs.FS) HostFuncBundle {
	return &staticBundle{
		handlers: map[entities.Operation]Handler{
			entities.OpGetStaticFile: func(_ context.Context, req *entities.HostRequest) ([]byte, error) {
				name := strings.TrimPrefix(req.Name, "/")
				if !fs.ValidPath(name) || name == "." {
					return nil, &domainerrors.EncodingError{Field: "name", Err: fmt.Errorf("invalid file name %q", req.Name)}
				}
				info, err := fs.Stat(fsys, name)
				switch {
				case errors.Is(err, fs.ErrNotExist), err == nil && info.IsDir():
					return nil, &domainerrors.NotFoundError{Op: entities.OpGetStaticFile, Target: name}
				case err != nil:
					return nil, err
				case info.Size() > math.MaxInt32:
					return nil, fmt.Errorf("static file %s: %d bytes exceeds result limit", name, info.Size())
				}
				return fs.ReadFile(fsys, name)
			},
		},
	}
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[entities.Operation]Handler {
	result := make(map[entities.Operation]Handler)
	for _, bundle := range b.bundles {
		for op, h := range bundle.Handlers() {
			result[op] = h
		}
	}
	return result
}

// Bundles combines bundles into one. Later bundles win on conflicts.
func Bundles(bundles ...HostFuncBundle) HostFuncBundle {
	return &compositeBundle{bundles: bundles}
}

// WithBundle registers all handlers from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for op, h := range bundle.Handlers() {
			if err := b.addHandler(op, h); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}
