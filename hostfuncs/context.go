package hostfuncs

import (
	"context"
)

// HostContext is the context a Handler runs under. It carries the name of
// the invoked export so middleware can label logs and recovered panics.
type HostContext interface {
	context.Context
	FunctionName() string
}

type callContext struct {
	context.Context
	name string
}

func (c callContext) FunctionName() string {
	return c.name
}

// NewHostContext labels ctx with the invoked function name.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return callContext{Context: ctx, name: funcName}
}

// HostContextFrom returns ctx unchanged when it already carries a function
// name and labels it with funcName otherwise.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok {
		return hc
	}
	return NewHostContext(ctx, funcName)
}

// FunctionNameFrom returns the function name carried by ctx, or "unknown".
func FunctionNameFrom(ctx context.Context) string {
	if hc, ok := ctx.(HostContext); ok {
		return hc.FunctionName()
	}
	return "unknown"
}
