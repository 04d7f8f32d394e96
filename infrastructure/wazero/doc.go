// Package wazero registers the host side of the guest call protocol with a
// wazero runtime.
//
// RegisterWithRuntime instantiates a host module (named "env" by default)
// exporting the primitives a guest imports:
//
//	cache_set(key_ptr, key_len, val_ptr, val_len i32, ttl i32)
//	cache_get(key_ptr, key_len i32) i32
//	db_exec(query_kind i32, name_ptr, name_len i32) i32
//	graphql_query(endpoint_ptr, endpoint_len, query_ptr, query_len i32) i32
//	get_static_file(name_ptr, name_len i32) i32
//	add_var(name_ptr, name_len, val_ptr, val_len i32)
//	fetch_result(dest_ptr i32, size i32)
//	log_msg(ptr, len i32, level i32)
//
// Trigger primitives return the size of the staged result or a negative
// sentinel. The staged result and registered arguments live in the
// hostfuncs.Session carried by the call context, so each invocation must run
// with one:
//
//	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.CacheBundle(store)))
//	if err != nil {
//	    return err
//	}
//	rt := wazero.NewRuntime(ctx)
//	if err := adapter.RegisterWithRuntime(ctx, rt, registry); err != nil {
//	    return err
//	}
//	ctx = hostfuncs.WithSession(ctx, hostfuncs.NewSession())
//	_, err = guest.ExportedFunction("run").Call(ctx, ptr, length)
//
// Guest memory is read with bounds checks. A region outside guest memory, or
// longer than the configured maximum request size, fails a trigger with the
// encoding sentinel; void primitives log the failure and do nothing.
// fetch_result copies the staged bytes straight into guest memory and never
// allocates from the size the guest passes.
package wazero
