// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion: the call protocol depends on
// abstractions, and infrastructure adapters (WASM imports, in-process hosts,
// cache and database backends) implement them.
package ports
