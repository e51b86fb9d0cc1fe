package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	panicHandler := func(context.Context, []uint64) error {
		panic("test panic")
	}

	wrapped := PanicRecoveryMiddleware()(panicHandler)

	err := wrapped(NewHostContext(context.Background(), FuncSyncStore), make([]uint64, 1))
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, FuncSyncStore, pe.Function)
	assert.Contains(t, err.Error(), "test panic")
}

func TestPanicRecoveryMiddleware_ErrorValue(t *testing.T) {
	cause := errors.New("nil map")
	wrapped := PanicRecoveryMiddleware()(func(context.Context, []uint64) error {
		panic(cause)
	})

	err := wrapped(context.Background(), nil)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unknown panicked")
}

func TestPanicRecoveryMiddleware_NoPanic(t *testing.T) {
	wrapped := PanicRecoveryMiddleware()(constHandler(5))

	stack := make([]uint64, 1)
	require.NoError(t, wrapped(context.Background(), stack))
	assert.Equal(t, uint64(5), stack[0])
}

func TestMiddlewareOrder_FIFO(t *testing.T) {
	var callOrder []string

	record := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, stack []uint64) error {
				callOrder = append(callOrder, name+"-before")
				err := next(ctx, stack)
				callOrder = append(callOrder, name+"-after")
				return err
			}
		}
	}

	reg, err := NewRegistry(
		WithMiddleware(record("mw1"), record("mw2")),
		WithDefinition(Definition{Name: "f", Results: []ValueType{ValueTypeI32}, Handler: func(ctx context.Context, stack []uint64) error {
			callOrder = append(callOrder, "handler")
			return nil
		}}),
	)
	require.NoError(t, err)
	require.NoError(t, reg.Invoke(context.Background(), "f", make([]uint64, 1)))

	assert.Equal(t, []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}, callOrder)
}

func TestPanicRecovery_ThroughRegistry(t *testing.T) {
	reg, err := NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware()),
		WithDefinition(Definition{
			Name:         FuncSyncStore,
			Results:      []ValueType{ValueTypeI32},
			ErrorResults: []uint64{EncodeI32(int32(StatusInternal))},
			Handler:      func(context.Context, []uint64) error { panic("backend exploded") },
		}),
	)
	require.NoError(t, err)

	stack := make([]uint64, 1)
	err = reg.Invoke(context.Background(), FuncSyncStore, stack)
	require.Error(t, err)
	assert.Equal(t, StatusInternal, Status(DecodeI32(stack[0])))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg, err := NewRegistry(
		WithMiddleware(LoggingMiddleware(logger)),
		WithDefinition(Definition{Name: "ok", Handler: constHandler(1), Results: []ValueType{ValueTypeI32}}),
		WithDefinition(Definition{Name: "bad", Handler: func(context.Context, []uint64) error {
			return errors.New("denied")
		}}),
	)
	require.NoError(t, err)

	require.NoError(t, reg.Invoke(context.Background(), "ok", make([]uint64, 1)))
	require.Error(t, reg.Invoke(context.Background(), "bad", make([]uint64, 1)))

	out := buf.String()
	assert.Contains(t, out, "invoking host function")
	assert.Contains(t, out, "function=ok")
	assert.Contains(t, out, "host function completed")
	assert.Contains(t, out, "host function failed")
	assert.Contains(t, out, "error=denied")
}
