package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// HandlerRegistry is an immutable collection of host function definitions.
// Once created via NewRegistry, definitions cannot be added or removed.
// This ensures thread safety and lock-free lookups during execution.
type HandlerRegistry struct {
	defs  map[string]Definition
	names []string // sorted for consistent iteration
}

type registryBuilder struct {
	defs       map[string]Definition
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if any function name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(bridge),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		defs: make(map[string]Definition),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.defs))
	for name := range b.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	// Apply middleware chain to all handlers (FIFO order)
	wrapped := make(map[string]Definition, len(b.defs))
	for name, def := range b.defs {
		h := def.Handler
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		def.Handler = h
		wrapped[name] = def
	}

	return &HandlerRegistry{
		defs:  wrapped,
		names: names,
	}, nil
}

// Invoke dispatches a host function call by name.
// On a handler error the definition's ErrorResults are written to stack
// before the error is returned.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, stack []uint64) error {
	def, ok := r.defs[name]
	if !ok {
		return &NotFoundError{Name: name}
	}

	hctx := HostContextFrom(ctx, name)
	err := def.Handler(hctx, stack)
	if err != nil && def.ErrorResults != nil {
		copy(stack, def.ErrorResults)
	}
	return err
}

// Definition returns the (middleware-wrapped) definition registered under name.
func (r *HandlerRegistry) Definition(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Has returns true if a function with the given name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Names returns a sorted list of all registered function names.
func (r *HandlerRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

func (b *registryBuilder) addDefinition(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("handler %q has no implementation", def.Name)
	}
	if _, exists := b.defs[def.Name]; exists {
		return fmt.Errorf("duplicate handler name: %q", def.Name)
	}
	if len(def.ErrorResults) > len(def.Results) {
		return fmt.Errorf("handler %q declares %d error results for %d results",
			def.Name, len(def.ErrorResults), len(def.Results))
	}
	b.defs[def.Name] = def
	return nil
}

// WithDefinition registers a single host function definition.
func WithDefinition(def Definition) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addDefinition(def); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
