package hostfuncs

import (
	"context"
)

// ValueType is a WebAssembly value type used in host function signatures.
type ValueType byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = iota + 1
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	default:
		return "unknown"
	}
}

// Handler implements a host function over the raw value stack.
// Parameters are read from stack and results are written back in place,
// following the calling convention of the runtime adapters.
//
// A returned error is reported by the adapter; it does not trap the guest.
type Handler func(ctx context.Context, stack []uint64) error

// Definition describes one exported host function.
type Definition struct {
	// Handler implements the function.
	Handler Handler

	// Name is the exported function name.
	Name string

	// Params are the WASM parameter types.
	Params []ValueType

	// Results are the WASM result types.
	Results []ValueType

	// ErrorResults are written to the result slots when Handler returns
	// an error, including a recovered panic. Nil leaves the stack as the
	// handler left it.
	ErrorResults []uint64
}

// StackSize is the number of stack slots the runtime reserves for a call.
func (d Definition) StackSize() int {
	if len(d.Params) > len(d.Results) {
		return len(d.Params)
	}
	return len(d.Results)
}

// EncodeI32 encodes a signed 32-bit value into a stack slot.
func EncodeI32(v int32) uint64 {
	return uint64(uint32(v)) //nolint:gosec // G115: two's complement reinterpretation
}

// DecodeI32 decodes a signed 32-bit value from a stack slot.
func DecodeI32(v uint64) int32 {
	return int32(uint32(v)) //nolint:gosec // G115: two's complement reinterpretation
}
