// Package hostfuncs implements the host side of the guest call protocol in
// pure Go, with no WASM runtime dependency.
//
// A Session holds the per-invocation state the protocol needs: the query
// arguments registered with add_var and the result staged by the last trigger
// call, which the guest copies out with fetch_result. A HandlerRegistry maps
// each operation to a Handler backed by a cache store, query executor,
// GraphQL client, or static file tree, wrapped in middleware.
//
// Runtime adapters (see infrastructure/wazero) and the in-process Loopback
// both drive a registry through HandlerRegistry.Call, so every transport produces
// the same sizes and sentinels.
package hostfuncs
