package host

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/sys"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/infrastructure/durable"
)

// Minimal hand-assembled cores. Only the sections the tests need are
// emitted; every size fits in one LEB128 byte.

func wasmSection(id byte, content ...byte) []byte {
	return append([]byte{id, byte(len(content))}, content...)
}

func wasmName(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

func wasmImport(module, name string, typeIdx byte) []byte {
	out := append(wasmName(module), wasmName(name)...)
	return append(out, 0x00, typeIdx)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// persistCore mounts the store and flushes it once:
//
//	(import "env" "mount_idbfs" (func))
//	(import "env" "sync_fs" (func (result i32)))
//	(func (export "_start") call 0 call 1 drop)
func persistCore() []byte {
	types := wasmSection(0x01, concat(
		[]byte{0x02},
		[]byte{0x60, 0x00, 0x00},
		[]byte{0x60, 0x00, 0x01, 0x7f},
	)...)
	imports := wasmSection(0x02, concat(
		[]byte{0x02},
		wasmImport("env", hostfuncs.FuncMountStore, 0),
		wasmImport("env", hostfuncs.FuncSyncStore, 1),
	)...)
	funcs := wasmSection(0x03, 0x01, 0x00)
	exports := wasmSection(0x07, concat([]byte{0x01}, wasmName("_start"), []byte{0x00, 0x02})...)
	body := []byte{0x00, 0x10, 0x00, 0x10, 0x01, 0x1a, 0x0b}
	code := wasmSection(0x0a, concat([]byte{0x01, byte(len(body))}, body)...)
	return concat(wasmHeader, types, imports, funcs, exports, code)
}

// exitCore calls proc_exit(code) from _start.
func exitCore(code byte) []byte {
	types := wasmSection(0x01, concat(
		[]byte{0x02},
		[]byte{0x60, 0x01, 0x7f, 0x00},
		[]byte{0x60, 0x00, 0x00},
	)...)
	imports := wasmSection(0x02, concat(
		[]byte{0x01},
		wasmImport("wasi_snapshot_preview1", "proc_exit", 0),
	)...)
	funcs := wasmSection(0x03, 0x01, 0x01)
	exports := wasmSection(0x07, concat([]byte{0x01}, wasmName("_start"), []byte{0x00, 0x01})...)
	body := []byte{0x00, 0x41, code, 0x10, 0x00, 0x0b}
	code2 := wasmSection(0x0a, concat([]byte{0x01, byte(len(body))}, body)...)
	return concat(wasmHeader, types, imports, funcs, exports, code2)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)

	scratch := e.ScratchDir()
	assert.DirExists(t, scratch)
	assert.Equal(t, hostfuncs.DefaultMountpoint, e.Bridge().Mountpoint())
	assert.ElementsMatch(t, []string{
		hostfuncs.FuncRandomSeed,
		hostfuncs.FuncUnixTimeNanos,
		hostfuncs.FuncMountStore,
		hostfuncs.FuncSyncStore,
	}, e.Registry().Names())

	require.NoError(t, e.Close(ctx))
	assert.NoDirExists(t, scratch, "temporary scratch directory is removed")
}

func TestNewExecutor_DuplicateHostFunction(t *testing.T) {
	_, err := NewExecutor(context.Background(),
		WithLogger(quietLogger()),
		WithHostFunctions(hostfuncs.Definition{
			Name:    hostfuncs.FuncSyncStore,
			Handler: func(context.Context, []uint64) error { return nil },
		}),
	)
	assert.ErrorContains(t, err, "duplicate handler name")
}

func TestNewExecutor_RelativeScratchDir(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	t.Chdir(base)

	e, err := NewExecutor(ctx, WithLogger(quietLogger()), WithScratchDir("scratch"))
	require.NoError(t, err)
	defer e.Close(ctx)

	assert.True(t, filepath.IsAbs(e.ScratchDir()))
	assert.DirExists(t, filepath.Join(base, "scratch"))
}

func TestNewExecutor_UnresolvableScratchDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the working directory cannot be removed on windows")
	}
	gone := t.TempDir()
	t.Chdir(gone)
	require.NoError(t, os.Remove(gone))

	_, err := NewExecutor(context.Background(), WithLogger(quietLogger()), WithScratchDir("scratch"))
	assert.ErrorContains(t, err, "failed to resolve scratch directory")
}

func TestExecutor_RunPullsAndPushes(t *testing.T) {
	ctx := context.Background()
	backend := durable.NewMemory()
	require.NoError(t, backend.Store(ctx, entities.Entry{
		EntryInfo: entities.EntryInfo{Path: "saved.txt", Mode: 0o644, ModTime: time.Unix(1700000000, 0)},
		Data:      []byte("from last session"),
	}))

	scratch := t.TempDir()
	e, err := NewExecutor(ctx,
		WithLogger(quietLogger()),
		WithBackend(backend),
		WithScratchDir(scratch),
	)
	require.NoError(t, err)
	defer e.Close(ctx)

	require.NoError(t, e.Run(ctx, persistCore()))
	assert.True(t, e.Bridge().Mounted())

	data, err := os.ReadFile(filepath.Join(scratch, "persist", "saved.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from last session", string(data))

	// Something the core wrote between runs reaches the backend on the
	// next sync_fs; mount_idbfs is a no-op the second time.
	require.NoError(t, os.WriteFile(filepath.Join(scratch, "persist", "new.txt"), []byte("fresh"), 0o644))
	require.NoError(t, e.Run(ctx, persistCore()))

	got, err := backend.Load(ctx, "new.txt")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got.Data))
	assert.True(t, e.Bridge().LastResult().OK())
	assert.Equal(t, entities.Push, e.Bridge().LastResult().Direction)

	assert.DirExists(t, scratch, "caller-provided scratch directory is kept")
}

func TestExecutor_FlushOnExit(t *testing.T) {
	ctx := context.Background()
	backend := durable.NewMemory()
	scratch := t.TempDir()

	e, err := NewExecutor(ctx,
		WithLogger(quietLogger()),
		WithBackend(backend),
		WithScratchDir(scratch),
		WithFlushOnExit(true),
	)
	require.NoError(t, err)
	defer e.Close(ctx)

	// Not mounted: nothing to flush.
	require.NoError(t, e.Run(ctx, exitCore(0)))

	require.NoError(t, e.Bridge().Mount(ctx))
	require.NoError(t, os.WriteFile(filepath.Join(scratch, "persist", "late.txt"), []byte("x"), 0o644))
	require.NoError(t, e.Run(ctx, exitCore(0)))

	_, err = backend.Load(ctx, "late.txt")
	assert.NoError(t, err)
}

func TestExecutor_ExitCode(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer e.Close(ctx)

	require.NoError(t, e.Run(ctx, exitCore(0)), "proc_exit(0) is success")

	err = e.Run(ctx, exitCore(3))
	require.Error(t, err)
	var exitErr *sys.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, uint32(3), exitErr.ExitCode())
}

func TestExecutor_InvalidModule(t *testing.T) {
	ctx := context.Background()
	var stderr bytes.Buffer
	e, err := NewExecutor(ctx, WithLogger(quietLogger()), WithStderr(&stderr))
	require.NoError(t, err)
	defer e.Close(ctx)

	err = e.Run(ctx, []byte("not wasm"))
	assert.ErrorContains(t, err, "failed to compile module")
}
