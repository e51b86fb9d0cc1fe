package hostfuncs

import (
	"context"
	"log/slog"
	"time"
)

// Middleware is a function that wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Handler) Handler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that converts a panic in a
// handler into a *PanicError instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, stack []uint64) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewPanicError(FunctionNameFrom(ctx), r)
				}
			}()
			return next(ctx, stack)
		}
	}
}

// LoggingMiddleware returns a middleware that logs host function invocations
// at debug level and failures at error level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, stack []uint64) error {
			funcName := FunctionNameFrom(ctx)
			start := time.Now()
			logger.DebugContext(ctx, "invoking host function", "function", funcName)

			err := next(ctx, stack)
			if err != nil {
				logger.ErrorContext(ctx, "host function failed",
					"function", funcName, "error", err, "elapsed", time.Since(start))
			} else {
				logger.DebugContext(ctx, "host function completed",
					"function", funcName, "elapsed", time.Since(start))
			}
			return err
		}
	}
}
