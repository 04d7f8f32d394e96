// Package db runs the host's pre-registered, named database queries.
//
// Arguments are registered with the host in the order given, then the query
// is triggered by name. Insert results are a JSON object with the key
// "lastInsertID"; select results are a JSON array of objects keyed by column
// name. Both are returned exactly as the host produced them.
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
	"github.com/runnable-dev/runnable-sdk/ffi"
	"github.com/runnable-dev/runnable-sdk/infrastructure/wasm"
)

// QueryArg is a single named query argument.
type QueryArg = entities.QueryArg

// NewArg builds a QueryArg, formatting value as text. Strings and byte slices
// are used as-is, scalars use their fmt form, and anything else is JSON.
func NewArg(name string, value any) QueryArg {
	return QueryArg{Name: name, Value: formatValue(value)}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

// callConfig holds the configuration for a query call.
type callConfig struct {
	host   ports.HostBoundary
	errMap ffi.ErrorMap
}

func defaultCallConfig() callConfig {
	return callConfig{
		host:   wasm.NewHostAdapter(),
		errMap: ffi.DefaultErrorMap(),
	}
}

// Option configures a query call.
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

func exec(ctx context.Context, kind entities.QueryType, name string, args []QueryArg, opts []Option) ([]byte, error) {
	cfg := defaultCallConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return ffi.NewClient(cfg.host, ffi.WithErrorMap(cfg.errMap)).DBExec(ctx, kind, []byte(name), args)
}

// Insert runs the named insert query and returns the host's JSON result.
func Insert(ctx context.Context, name string, args []QueryArg, opts ...Option) ([]byte, error) {
	return exec(ctx, entities.QueryTypeInsert, name, args, opts)
}

// Select runs the named select query and returns the host's JSON result.
// An unknown query name yields an error matching domain/errors.ErrNotFound.
func Select(ctx context.Context, name string, args []QueryArg, opts ...Option) ([]byte, error) {
	return exec(ctx, entities.QueryTypeSelect, name, args, opts)
}

// InsertID runs Insert and decodes the inserted row ID.
func InsertID(ctx context.Context, name string, args []QueryArg, opts ...Option) (int64, error) {
	raw, err := Insert(ctx, name, args, opts...)
	if err != nil {
		return 0, err
	}
	var res entities.InsertResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return 0, fmt.Errorf("db: decode insert result for %q: %w", name, err)
	}
	return res.LastInsertID, nil
}

// SelectInto runs Select and decodes the rows into dest, typically a pointer
// to a slice of structs with json tags matching the column names.
func SelectInto(ctx context.Context, name string, args []QueryArg, dest any, opts ...Option) error {
	raw, err := Select(ctx, name, args, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("db: decode rows for %q: %w", name, err)
	}
	return nil
}
