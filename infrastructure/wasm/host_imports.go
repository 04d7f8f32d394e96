//go:build wasip1

// Package wasm binds the host primitives imported from the "env" module and
// adapts them to ports.HostBoundary.
package wasm

//go:wasmimport env cache_set
func host_cache_set(keyPtr, keyLen, valPtr, valLen uint32, ttl int32)

//go:wasmimport env cache_get
func host_cache_get(keyPtr, keyLen uint32) int32

//go:wasmimport env db_exec
func host_db_exec(queryKind int32, namePtr, nameLen uint32) int32

//go:wasmimport env graphql_query
func host_graphql_query(endpointPtr, endpointLen, queryPtr, queryLen uint32) int32

//go:wasmimport env get_static_file
func host_get_static_file(namePtr, nameLen uint32) int32

//go:wasmimport env add_var
func host_add_var(namePtr, nameLen, valPtr, valLen uint32)

//go:wasmimport env fetch_result
func host_fetch_result(destPtr uint32, size int32)
