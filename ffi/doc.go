// Package ffi implements the guest side of the host call protocol.
//
// Every host operation follows the same two-phase exchange:
//
//  1. The Initiator encodes the request and crosses the boundary once per
//     registered argument plus once for the triggering primitive. The trigger
//     returns a signed size-or-sentinel.
//  2. The Retriever turns that value into a result. A negative sentinel is
//     mapped through an ErrorMap to a typed error with no further host calls.
//     A non-negative size n allocates exactly n bytes and fetches the staged
//     result exactly once.
//
// Argument registration is stateful on the host, so a Client serializes whole
// operations (registration, trigger, fetch) behind a package-wide lock.
//
// # Basic Usage
//
//	client := ffi.NewClient(wasm.NewHostAdapter())
//	value, err := client.CacheGet(ctx, []byte("user:1"))
//	if errors.Is(err, domainerrors.ErrNotFound) {
//	    // cache miss
//	}
package ffi
