//go:build !wasip1

// Package wasm binds the host primitives imported from the "env" module and
// adapts them to ports.HostBoundary.
package wasm

import (
	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.HostBoundary = (*HostAdapter)(nil)

const nativeMsg = "WASM host adapter not available in native build: inject a host with WithHost (see package hosttest)"

// HostAdapter stub for native builds.
type HostAdapter struct{}

func NewHostAdapter() *HostAdapter {
	return &HostAdapter{}
}

func (HostAdapter) CacheSet(key, value []byte, ttl int32)             { panic(nativeMsg) }
func (HostAdapter) CacheGet(key []byte) int32                         { panic(nativeMsg) }
func (HostAdapter) DBExec(kind entities.QueryType, name []byte) int32 { panic(nativeMsg) }
func (HostAdapter) GraphQLQuery(endpoint, query []byte) int32         { panic(nativeMsg) }
func (HostAdapter) GetStaticFile(name []byte) int32                   { panic(nativeMsg) }
func (HostAdapter) AddVar(name, value []byte)                         { panic(nativeMsg) }
func (HostAdapter) FetchResult(dest []byte)                           { panic(nativeMsg) }
