// Package host runs a compiled core on the wazero runtime with the host
// bridge attached.
//
// The executor instantiates WASI, exports the bridge functions from the
// "env" module and mounts a scratch directory at the guest root. The
// persistent store lives below the mountpoint inside that directory and
// is synced to the durable backend when the core asks for it.
package host
