// Package wazero registers host function definitions with the wazero runtime.
//
// Each hostfuncs.Definition becomes one export of a host module (default
// "env"). Values move over the wazero value stack as-is, so the exported
// signatures are exactly the ones the compiled core imports:
//
//	get_random_seed       () -> i64
//	unix_time_nanoseconds () -> i64
//	mount_idbfs           () -> ()
//	sync_fs               () -> i32
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(bridge),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	_, err = wazero.RegisterWithRuntime(ctx, runtime, registry)
//
// # Custom Handlers
//
// Functions that need the calling api.Module (for example to read guest
// memory) can be exported with WithCustomHandler:
//
//	wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithCustomHandler(wazero.CustomHandler{
//	        Name:        "abort",
//	        Handler:     abortHandler,
//	        ParamTypes:  []api.ValueType{api.ValueTypeI32},
//	        ResultTypes: []api.ValueType{},
//	    }),
//	)
package wazero
