// Package hostbridge connects a compiled WebAssembly core to its host:
// entropy, wall-clock time, and a persistent filesystem whose sync looks
// blocking to the core.
//
// The host functions live in hostfuncs, the runtime in host, and the
// storage layers under infrastructure.
package hostbridge

// Version of the hostbridge module.
const Version = "0.1.0"
