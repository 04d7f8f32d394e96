// Package hosttest provides a recording stub host for testing guest code
// without a WASM runtime.
//
// The stub keeps cache values in a map, stages results exactly like a real
// host, and records every primitive call in order so tests can assert on the
// protocol itself:
//
//	h := hosttest.New()
//	h.OnDBExec = func(kind entities.QueryType, name string, vars []entities.QueryArg) ([]byte, int32) {
//	    return []byte(`{"lastInsertID":1}`), 0
//	}
//	_, err := db.Insert(ctx, "addUser", args, db.WithHost(h))
//	assert.Equal(t, []string{"add_var", "add_var", "db_exec", "fetch_result"}, h.Primitives())
package hosttest

import (
	"sync"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.HostBoundary = (*Host)(nil)

// Primitive names recorded in the call log.
const (
	PrimitiveCacheSet     = "cache_set"
	PrimitiveCacheGet     = "cache_get"
	PrimitiveDBExec       = "db_exec"
	PrimitiveGraphQLQuery = "graphql_query"
	PrimitiveGetStatic    = "get_static_file"
	PrimitiveAddVar       = "add_var"
	PrimitiveFetchResult  = "fetch_result"
)

// Call is one recorded boundary crossing.
type Call struct {
	Primitive string
	Name      string
	Value     string
	TTL       int32
	Kind      entities.QueryType
	Size      int
	Returned  int32
}

// ResponseFunc produces a staged result or a negative sentinel.
// When sentinel < 0 the result is ignored.
type (
	DBExecFunc       func(kind entities.QueryType, name string, vars []entities.QueryArg) (result []byte, sentinel int32)
	GraphQLQueryFunc func(endpoint, query string) (result []byte, sentinel int32)
	CacheGetFunc     func(key string) (result []byte, sentinel int32)
	StaticFileFunc   func(name string) (result []byte, sentinel int32)
)

// Host is a map-backed, recording implementation of ports.HostBoundary.
type Host struct {
	// OnCacheGet overrides the map lookup when set.
	OnCacheGet CacheGetFunc

	// OnDBExec answers db_exec. Without it db_exec returns SentinelNotFound.
	OnDBExec DBExecFunc

	// OnGraphQLQuery answers graphql_query. Without it graphql_query returns SentinelNotFound.
	OnGraphQLQuery GraphQLQueryFunc

	// OnGetStaticFile answers get_static_file. Without it get_static_file
	// returns SentinelNotFound.
	OnGetStaticFile StaticFileFunc

	store  map[string][]byte
	ttls   map[string]int32
	vars   []entities.QueryArg
	staged []byte
	calls  []Call
	mu     sync.Mutex
}

// New creates an empty stub host.
func New() *Host {
	return &Host{
		store: make(map[string][]byte),
		ttls:  make(map[string]int32),
	}
}

// CacheSet implements ports.HostBoundary.
func (h *Host) CacheSet(key, value []byte, ttl int32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.store[string(key)] = append([]byte(nil), value...)
	h.ttls[string(key)] = ttl
	h.record(Call{Primitive: PrimitiveCacheSet, Name: string(key), Value: string(value), TTL: ttl})
}

// CacheGet implements ports.HostBoundary.
func (h *Host) CacheGet(key []byte) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		result   []byte
		sentinel int32
	)
	if h.OnCacheGet != nil {
		result, sentinel = h.OnCacheGet(string(key))
	} else if v, ok := h.store[string(key)]; ok {
		result = v
	} else {
		sentinel = entities.SentinelNotFound
	}

	ret := h.stage(result, sentinel)
	h.record(Call{Primitive: PrimitiveCacheGet, Name: string(key), Returned: ret})
	return ret
}

// DBExec implements ports.HostBoundary.
func (h *Host) DBExec(kind entities.QueryType, name []byte) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	vars := h.vars
	h.vars = nil

	result, sentinel := []byte(nil), entities.SentinelNotFound
	if h.OnDBExec != nil {
		result, sentinel = h.OnDBExec(kind, string(name), vars)
	}

	ret := h.stage(result, sentinel)
	h.record(Call{Primitive: PrimitiveDBExec, Name: string(name), Kind: kind, Returned: ret})
	return ret
}

// GraphQLQuery implements ports.HostBoundary.
func (h *Host) GraphQLQuery(endpoint, query []byte) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	result, sentinel := []byte(nil), entities.SentinelNotFound
	if h.OnGraphQLQuery != nil {
		result, sentinel = h.OnGraphQLQuery(string(endpoint), string(query))
	}

	ret := h.stage(result, sentinel)
	h.record(Call{Primitive: PrimitiveGraphQLQuery, Name: string(endpoint), Value: string(query), Returned: ret})
	return ret
}

// GetStaticFile implements ports.HostBoundary.
func (h *Host) GetStaticFile(name []byte) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	result, sentinel := []byte(nil), entities.SentinelNotFound
	if h.OnGetStaticFile != nil {
		result, sentinel = h.OnGetStaticFile(string(name))
	}

	ret := h.stage(result, sentinel)
	h.record(Call{Primitive: PrimitiveGetStatic, Name: string(name), Returned: ret})
	return ret
}

// AddVar implements ports.HostBoundary.
func (h *Host) AddVar(name, value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.vars = append(h.vars, entities.QueryArg{Name: string(name), Value: string(value)})
	h.record(Call{Primitive: PrimitiveAddVar, Name: string(name), Value: string(value)})
}

// FetchResult implements ports.HostBoundary.
func (h *Host) FetchResult(dest []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	copy(dest, h.staged)
	h.staged = nil
	h.record(Call{Primitive: PrimitiveFetchResult, Size: len(dest)})
}

// Calls returns a copy of the ordered call log.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Call, len(h.calls))
	copy(out, h.calls)
	return out
}

// Primitives returns the primitive names of the call log, in order.
func (h *Host) Primitives() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, 0, len(h.calls))
	for _, c := range h.calls {
		out = append(out, c.Primitive)
	}
	return out
}

// Count returns how many times primitive was called.
func (h *Host) Count(primitive string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, c := range h.calls {
		if c.Primitive == primitive {
			n++
		}
	}
	return n
}

// TTL returns the ttl passed with the last cache_set for key.
func (h *Host) TTL(key string) (int32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ttl, ok := h.ttls[key]
	return ttl, ok
}

// PendingVars returns arguments registered but not yet consumed by db_exec.
func (h *Host) PendingVars() []entities.QueryArg {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]entities.QueryArg, len(h.vars))
	copy(out, h.vars)
	return out
}

// Reset clears the call log, the cache, and any staged state.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.store = make(map[string][]byte)
	h.ttls = make(map[string]int32)
	h.vars = nil
	h.staged = nil
	h.calls = nil
}

func (h *Host) stage(result []byte, sentinel int32) int32 {
	if sentinel < 0 {
		h.staged = nil
		return sentinel
	}
	h.staged = append([]byte(nil), result...)
	return int32(len(h.staged)) //nolint:gosec // G115: test payloads are small
}

func (h *Host) record(c Call) {
	h.calls = append(h.calls, c)
}
