package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/infrastructure/clock"
	"github.com/reglet-dev/hostbridge/infrastructure/durable"
	"github.com/reglet-dev/hostbridge/infrastructure/entropy"
	"github.com/reglet-dev/hostbridge/infrastructure/vfs"
	hostwazero "github.com/reglet-dev/hostbridge/infrastructure/wazero"
	hostlog "github.com/reglet-dev/hostbridge/log"
)

// Executor manages the runtime a compiled core runs in.
type Executor struct {
	runtime  wazero.Runtime
	registry *hostfuncs.HandlerRegistry
	bridge   *hostfuncs.Bridge
	backend  ports.DurableBackend
	clock    *clock.System
	config   executorConfig

	scratch     string
	ownsScratch bool
}

// NewExecutor creates a runtime with WASI and the bridge module instantiated.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.backend == nil {
		cfg.backend = durable.NewMemory()
	}
	if cfg.entropy == nil {
		cfg.entropy = entropy.NewCrypto()
	}

	e := &Executor{
		backend: cfg.backend,
		clock:   clock.NewSystem(cfg.resolution),
		config:  cfg,
		scratch: cfg.scratchDir,
	}

	if e.scratch == "" {
		dir, err := os.MkdirTemp("", "hostbridge-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		e.scratch = dir
		e.ownsScratch = true
	}
	abs, err := filepath.Abs(e.scratch)
	if err != nil {
		_ = e.removeScratch()
		return nil, fmt.Errorf("failed to resolve scratch directory: %w", err)
	}
	e.scratch = abs
	if err := os.MkdirAll(e.scratch, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	fs := vfs.New(
		afero.NewBasePathFs(afero.NewOsFs(), e.scratch),
		vfs.WithLogger(cfg.logger),
		vfs.WithWorkers(cfg.workers),
	)
	e.bridge = hostfuncs.NewBridge(fs, cfg.backend,
		hostfuncs.WithEntropy(cfg.entropy),
		hostfuncs.WithClock(e.clock),
		hostfuncs.WithLogger(cfg.logger),
		hostfuncs.WithMountpoint(cfg.mountpoint),
	)

	regOpts := []hostfuncs.RegistryOption{
		hostfuncs.WithMiddleware(
			hostfuncs.PanicRecoveryMiddleware(),
			hostfuncs.LoggingMiddleware(cfg.logger),
		),
		hostfuncs.WithBundle(e.bridge),
	}
	for _, def := range cfg.extra {
		regOpts = append(regOpts, hostfuncs.WithDefinition(def))
	}
	reg, err := hostfuncs.NewRegistry(regOpts...)
	if err != nil {
		e.removeScratch()
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	e.registry = reg

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if _, err := hostwazero.RegisterWithRuntime(ctx, rt, reg,
		hostwazero.WithModuleName(cfg.moduleName),
		hostwazero.WithLogger(cfg.logger),
	); err != nil {
		_ = rt.Close(ctx)
		e.removeScratch()
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Bridge returns the host bridge the core is linked against.
func (e *Executor) Bridge() *hostfuncs.Bridge {
	return e.bridge
}

// Registry returns the host functions exported to the core.
func (e *Executor) Registry() *hostfuncs.HandlerRegistry {
	return e.registry
}

// ScratchDir returns the host directory mounted at the guest root.
func (e *Executor) ScratchDir() string {
	return e.scratch
}

// Run compiles and starts a core, blocking until its start function
// returns. proc_exit(0) is success; any other exit code is returned as a
// *sys.ExitError.
func (e *Executor) Run(ctx context.Context, wasm []byte, args ...string) error {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return fmt.Errorf("failed to compile module: %w", err)
	}
	defer compiled.Close(ctx)

	stdout, stderr := e.config.stdout, e.config.stderr
	var streams []*hostlog.LineWriter
	if stdout == nil {
		w := hostlog.NewLineWriter(e.config.logger, slog.LevelInfo, "stdout")
		streams = append(streams, w)
		stdout = w
	}
	if stderr == nil {
		w := hostlog.NewLineWriter(e.config.logger, slog.LevelWarn, "stderr")
		streams = append(streams, w)
		stderr = w
	}
	defer func() {
		for _, w := range streams {
			w.Flush()
		}
	}()

	modCfg := wazero.NewModuleConfig().
		WithName(e.config.guestName).
		WithArgs(append([]string{e.config.guestName}, args...)...).
		WithStdout(stdout).
		WithStderr(stderr).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(e.scratch, "/")).
		WithRandSource(e.config.entropy.Reader()).
		WithWalltime(e.walltime, sys.ClockResolution(e.clock.Resolution().Nanoseconds())). //nolint:gosec // G115: resolution is at most a second
		WithSysNanotime()

	e.config.logger.DebugContext(ctx, "starting core", "guest", e.config.guestName, "scratch", e.scratch)
	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 0 {
			return fmt.Errorf("core %s: %w", e.config.guestName, err)
		}
	}

	if e.config.flushOnExit && e.bridge.Mounted() {
		if err := e.bridge.Sync(ctx); err != nil {
			return fmt.Errorf("flush on exit: %w", err)
		}
	}
	return nil
}

func (e *Executor) walltime() (sec int64, nsec int32) {
	now := e.clock.Now()
	return now.Unix(), int32(now.Nanosecond()) //nolint:gosec // G115: nanoseconds fit in int32
}

// Close unmounts the store, closes the runtime and the backend, and
// removes a temporary scratch directory.
func (e *Executor) Close(ctx context.Context) error {
	var errs []error
	if err := e.bridge.Unmount(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unmount: %w", err))
	}
	if err := e.runtime.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close runtime: %w", err))
	}
	if err := e.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close backend: %w", err))
	}
	if err := e.removeScratch(); err != nil {
		errs = append(errs, fmt.Errorf("remove scratch: %w", err))
	}
	return errors.Join(errs...)
}

func (e *Executor) removeScratch() error {
	if !e.ownsScratch {
		return nil
	}
	return os.RemoveAll(e.scratch)
}
