package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/hostbridge/hostfuncs"
)

// DefaultModuleName is the import module the compiled core links against.
const DefaultModuleName = "env"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives handler failures (default: slog.Default()).
	Logger *slog.Logger

	// ModuleName is the host module name (default: "env").
	ModuleName string

	// CustomHandlers allows adding wazero-specific handlers that need
	// direct access to the calling module.
	CustomHandlers []CustomHandler
}

// CustomHandler is a raw wazero host function exported next to the
// registry's definitions.
type CustomHandler struct {
	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// Name is the exported function name.
	Name string

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "env").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithLogger sets the logger for handler failures.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = logger
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: DefaultModuleName,
		Logger:     slog.Default(),
	}
}

// RegisterWithRuntime exports every definition of registry from a host
// module named by the configuration (default: "env") and instantiates it.
//
// Parameters and results travel on the wazero value stack unchanged. A
// handler error is logged and never traps the guest; the definition's
// error results are what the guest observes.
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(bridge),
//	)
//	mod, err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) (api.Module, error) {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		def, _ := registry.Definition(name)
		params, err := valueTypes(def.Params)
		if err != nil {
			return nil, fmt.Errorf("host function %q: %w", name, err)
		}
		results, err := valueTypes(def.Results)
		if err != nil {
			return nil, fmt.Errorf("host function %q: %w", name, err)
		}

		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, name, cfg.Logger)
			}), params, results).
			WithName(name).
			Export(name)
	}

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate host module %q: %w", cfg.ModuleName, err)
	}
	return mod, nil
}

// handleRegistryCall invokes the named definition for a call from WASM.
func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, logger *slog.Logger) {
	ctx = WithGuestName(ctx, GetGuestName(ctx, mod))
	if err := registry.Invoke(ctx, name, stack); err != nil {
		logger.ErrorContext(ctx, "wazero: host function failed",
			"function", name,
			"guest", GetGuestName(ctx, mod),
			"error", err,
		)
	}
}

func valueTypes(in []hostfuncs.ValueType) ([]api.ValueType, error) {
	out := make([]api.ValueType, 0, len(in))
	for _, v := range in {
		switch v {
		case hostfuncs.ValueTypeI32:
			out = append(out, api.ValueTypeI32)
		case hostfuncs.ValueTypeI64:
			out = append(out, api.ValueTypeI64)
		default:
			return nil, fmt.Errorf("unsupported value type %s", v)
		}
	}
	return out, nil
}
