// Package host runs runnable guest modules.
//
// An Executor owns a wazero runtime with WASI and the protocol's "env" host
// module, backed by a hostfuncs.HandlerRegistry. Each Instance.Run gets a fresh
// hostfuncs.Session, so staged results and registered query arguments never
// leak between invocations.
//
//	exec, err := host.NewExecutor(ctx, host.WithRegistry(registry))
//	if err != nil {
//	    return err
//	}
//	defer exec.Close(ctx)
//
//	inst, err := exec.LoadModule(ctx, "users", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	out, err := inst.Run(ctx, host.DefaultExport, input)
package host
