// Package hostfuncs provides pure Go implementations of the host bridge
// functions: random seed, wall-clock time, and the blocking mount and
// flush of the persistent store.
//
// These implementations have NO WASM runtime dependencies. Functions are
// described as Definitions over a raw value stack so any runtime adapter
// can export them; see infrastructure/wazero for the wazero adapter.
package hostfuncs
