// Package ports defines the host capabilities the bridge depends on.
// The bridge logic depends on these abstractions; infrastructure adapters
// implement them for a concrete host.
package ports
