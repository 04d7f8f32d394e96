package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	"github.com/runnable-dev/runnable-sdk/infrastructure/cachestore"
	"github.com/runnable-dev/runnable-sdk/infrastructure/graphqlclient"
	"github.com/runnable-dev/runnable-sdk/infrastructure/querystore"
)

// Host is the handler registry built from a Config together with the
// backends it owns.
type Host struct {
	Registry     *hostfuncs.HandlerRegistry
	Capabilities hostfuncs.Capabilities
	closers      []io.Closer
}

// Close releases every backend.
func (h *Host) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type buildOptions struct {
	logger   *slog.Logger
	metrics  *hostfuncs.Metrics
	staticFS fs.FS
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLogger sets the logger used by the logging middleware.
func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStaticFS serves get_static_file from fsys instead of capabilities.file.dir,
// for hosts that embed their static files. The file capability must still be
// enabled.
func WithStaticFS(fsys fs.FS) BuildOption {
	return func(o *buildOptions) {
		o.staticFS = fsys
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *hostfuncs.Metrics) BuildOption {
	return func(o *buildOptions) {
		o.metrics = m
	}
}

// Build opens the backends for every enabled capability and returns a
// registry serving them. Operations of a disabled capability are registered
// but always denied.
func Build(ctx context.Context, cfg *Config, opts ...BuildOption) (*Host, error) {
	o := buildOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	caps := cfg.Capabilities
	h := &Host{Capabilities: hostfuncs.Capabilities{
		Cache:    caps.Cache.Enabled,
		Database: caps.DB.Enabled,
		GraphQL:  caps.GraphQL.Enabled,
		File:     caps.File.Enabled,
	}}

	regOpts := []hostfuncs.RegistryOption{
		hostfuncs.WithLogger(o.logger),
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(o.logger)),
	}
	if o.metrics != nil {
		regOpts = append(regOpts, hostfuncs.WithMiddleware(hostfuncs.MetricsMiddleware(o.metrics)))
	}
	regOpts = append(regOpts, hostfuncs.WithMiddleware(hostfuncs.CapabilityMiddleware(h.Capabilities)))

	bundle, err := h.cacheBundle(ctx, caps.Cache)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	regOpts = append(regOpts, hostfuncs.WithBundle(bundle))

	bundle, err = h.dbBundle(ctx, caps.DB)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	regOpts = append(regOpts, hostfuncs.WithBundle(bundle))

	regOpts = append(regOpts, hostfuncs.WithBundle(graphqlBundle(caps.GraphQL)))

	bundle, err = h.fileBundle(caps.File, o.staticFS)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	regOpts = append(regOpts, hostfuncs.WithBundle(bundle))

	reg, err := hostfuncs.NewRegistry(regOpts...)
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	h.Registry = reg
	return h, nil
}

func (h *Host) cacheBundle(ctx context.Context, c CacheConfig) (hostfuncs.HostFuncBundle, error) {
	if !c.Enabled {
		return denied("cache", entities.OpCacheSet, entities.OpCacheGet), nil
	}

	var store ports.CacheStore
	switch c.Backend {
	case BackendRedis:
		r, err := cachestore.NewRedis(cachestore.RedisConfig{
			Addr:        c.Redis.Addr,
			Password:    c.Redis.Password,
			DB:          c.Redis.DB,
			KeyPrefix:   c.Redis.KeyPrefix,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, r)
		if err := r.Ping(ctx); err != nil {
			return nil, err
		}
		store = r
	default:
		m, err := cachestore.NewMemory(cachestore.MemoryConfig{
			Shards:           c.Memory.Shards,
			LifeWindow:       c.Memory.LifeWindow.Std(),
			CleanWindow:      cachestore.DefaultMemoryConfig().CleanWindow,
			HardMaxCacheSize: c.Memory.MaxSizeMB,
		})
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, m)
		store = m
	}
	return hostfuncs.CacheBundle(store, hostfuncs.WithMaxEntrySize(c.MaxEntrySize)), nil
}

func (h *Host) dbBundle(ctx context.Context, c DBConfig) (hostfuncs.HostFuncBundle, error) {
	if !c.Enabled {
		return denied("db", entities.OpDBInsert, entities.OpDBSelect), nil
	}

	queries := make([]querystore.Query, 0, len(c.Queries))
	for _, q := range c.Queries {
		kind, err := entities.ParseQueryType(q.Type)
		if err != nil {
			return nil, &domainerrors.ConfigError{Field: "capabilities.db.queries." + q.Name, Err: err}
		}
		queries = append(queries, querystore.Query{
			Name:       q.Name,
			Type:       kind,
			SQL:        q.SQL,
			VarCount:   q.VarCount,
			Positional: q.Positional,
		})
	}

	db, err := querystore.Open(ctx, querystore.Config{
		Driver:       c.Driver,
		DSN:          c.DSN,
		MaxOpenConns: c.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	for i, stmt := range c.Init {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db init statement %d: %w", i, err)
		}
	}
	store, err := querystore.New(db, queries)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	h.closers = append(h.closers, store)
	return hostfuncs.DatabaseBundle(store), nil
}

func graphqlBundle(c GraphQLConfig) hostfuncs.HostFuncBundle {
	if !c.Enabled {
		return denied("graphql", entities.OpGraphQLQuery)
	}
	return hostfuncs.GraphQLBundle(graphqlclient.New(graphqlclient.Config{
		Timeout:         c.Timeout.Std(),
		Headers:         c.Headers,
		MaxResponseSize: c.MaxResponseSize,
		AllowedHosts:    c.AllowedHosts,
		AllowPrivate:    c.AllowPrivate,
	}))
}

func (h *Host) fileBundle(c FileConfig, fsys fs.FS) (hostfuncs.HostFuncBundle, error) {
	if !c.Enabled {
		return denied("file", entities.OpGetStaticFile), nil
	}
	if fsys != nil {
		return hostfuncs.FileBundle(fsys), nil
	}
	// os.Root keeps symlinks inside the directory from reaching outside it.
	root, err := os.OpenRoot(c.Dir)
	if err != nil {
		return nil, &domainerrors.ConfigError{Field: "capabilities.file.dir", Err: err}
	}
	h.closers = append(h.closers, root)
	return hostfuncs.FileBundle(root.FS()), nil
}

// denied returns handlers that reject ops. The capability middleware rejects
// them first; these keep a registry without it closed as well.
func denied(capability string, ops ...entities.Operation) hostfuncs.HostFuncBundle {
	h := func(context.Context, *entities.HostRequest) ([]byte, error) {
		return nil, &domainerrors.CapabilityError{Capability: capability}
	}
	handlers := make(map[entities.Operation]hostfuncs.Handler, len(ops))
	for _, op := range ops {
		handlers[op] = h
	}
	return hostfuncs.StaticBundle(handlers)
}

// NewLogger builds the host logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, &domainerrors.ConfigError{Field: "log.level", Err: err}
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
