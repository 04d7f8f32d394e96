//go:build wasip1

package wasm

import (
	"runtime"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
	"github.com/runnable-dev/runnable-sdk/internal/abi"
)

// Compile-time interface compliance check
var _ ports.HostBoundary = (*HostAdapter)(nil)

// HostAdapter implements ports.HostBoundary on top of the env imports.
// Slices are passed by address; each is kept alive until its import returns.
type HostAdapter struct{}

// NewHostAdapter creates a new host adapter.
func NewHostAdapter() *HostAdapter {
	return &HostAdapter{}
}

// CacheSet implements ports.HostBoundary.
func (HostAdapter) CacheSet(key, value []byte, ttl int32) {
	keyPtr, keyLen := abi.SliceArgs(key)
	valPtr, valLen := abi.SliceArgs(value)
	host_cache_set(keyPtr, keyLen, valPtr, valLen, ttl)
	runtime.KeepAlive(key)
	runtime.KeepAlive(value)
}

// CacheGet implements ports.HostBoundary.
func (HostAdapter) CacheGet(key []byte) int32 {
	keyPtr, keyLen := abi.SliceArgs(key)
	size := host_cache_get(keyPtr, keyLen)
	runtime.KeepAlive(key)
	return size
}

// DBExec implements ports.HostBoundary.
func (HostAdapter) DBExec(kind entities.QueryType, name []byte) int32 {
	namePtr, nameLen := abi.SliceArgs(name)
	size := host_db_exec(int32(kind), namePtr, nameLen)
	runtime.KeepAlive(name)
	return size
}

// GraphQLQuery implements ports.HostBoundary.
func (HostAdapter) GraphQLQuery(endpoint, query []byte) int32 {
	endpointPtr, endpointLen := abi.SliceArgs(endpoint)
	queryPtr, queryLen := abi.SliceArgs(query)
	size := host_graphql_query(endpointPtr, endpointLen, queryPtr, queryLen)
	runtime.KeepAlive(endpoint)
	runtime.KeepAlive(query)
	return size
}

// GetStaticFile implements ports.HostBoundary.
func (HostAdapter) GetStaticFile(name []byte) int32 {
	namePtr, nameLen := abi.SliceArgs(name)
	size := host_get_static_file(namePtr, nameLen)
	runtime.KeepAlive(name)
	return size
}

// AddVar implements ports.HostBoundary.
func (HostAdapter) AddVar(name, value []byte) {
	namePtr, nameLen := abi.SliceArgs(name)
	valPtr, valLen := abi.SliceArgs(value)
	host_add_var(namePtr, nameLen, valPtr, valLen)
	runtime.KeepAlive(name)
	runtime.KeepAlive(value)
}

// FetchResult implements ports.HostBoundary.
func (HostAdapter) FetchResult(dest []byte) {
	destPtr, destLen := abi.SliceArgs(dest)
	host_fetch_result(destPtr, int32(destLen)) //nolint:gosec // G115: dest was sized from an i32
	runtime.KeepAlive(dest)
}
