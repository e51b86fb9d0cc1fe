package host

import (
	"io"
	"log/slog"
	"time"

	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/infrastructure/clock"
	"github.com/reglet-dev/hostbridge/infrastructure/entropy"
	"github.com/reglet-dev/hostbridge/infrastructure/vfs"
	hostwazero "github.com/reglet-dev/hostbridge/infrastructure/wazero"
)

// DefaultGuestName is the module name given to the compiled core.
const DefaultGuestName = "core"

type executorConfig struct {
	backend     ports.DurableBackend
	entropy     *entropy.Crypto
	logger      *slog.Logger
	stdout      io.Writer
	stderr      io.Writer
	moduleName  string
	guestName   string
	mountpoint  string
	scratchDir  string
	extra       []hostfuncs.Definition
	resolution  time.Duration
	workers     int
	flushOnExit bool
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger:     slog.Default(),
		moduleName: hostwazero.DefaultModuleName,
		guestName:  DefaultGuestName,
		mountpoint: hostfuncs.DefaultMountpoint,
		resolution: clock.DefaultResolution,
		workers:    vfs.DefaultWorkers,
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

// WithBackend sets the durable backend (default: an in-memory store).
// The executor closes it on Close.
func WithBackend(b ports.DurableBackend) Option {
	return func(c *executorConfig) {
		c.backend = b
	}
}

// WithEntropy sets the entropy source for random seeds and WASI random_get.
func WithEntropy(src *entropy.Crypto) Option {
	return func(c *executorConfig) {
		c.entropy = src
	}
}

// WithLogger sets the logger for the executor, bridge and filesystem.
func WithLogger(logger *slog.Logger) Option {
	return func(c *executorConfig) {
		c.logger = logger
	}
}

// WithStdout sets the guest's stdout (default: logged at info level).
func WithStdout(w io.Writer) Option {
	return func(c *executorConfig) {
		c.stdout = w
	}
}

// WithStderr sets the guest's stderr (default: logged at warn level).
func WithStderr(w io.Writer) Option {
	return func(c *executorConfig) {
		c.stderr = w
	}
}

// WithModuleName sets the host module the bridge is exported from (default "env").
func WithModuleName(name string) Option {
	return func(c *executorConfig) {
		c.moduleName = name
	}
}

// WithGuestName sets the module name of the compiled core (default "core").
func WithGuestName(name string) Option {
	return func(c *executorConfig) {
		c.guestName = name
	}
}

// WithMountpoint sets the guest path of the persistent store (default "/persist").
func WithMountpoint(path string) Option {
	return func(c *executorConfig) {
		c.mountpoint = path
	}
}

// WithScratchDir sets the host directory mounted at the guest root.
// When unset a temporary directory is created and removed on Close.
func WithScratchDir(dir string) Option {
	return func(c *executorConfig) {
		c.scratchDir = dir
	}
}

// WithClockResolution sets the wall-clock resolution (default 1ms).
func WithClockResolution(d time.Duration) Option {
	return func(c *executorConfig) {
		c.resolution = d
	}
}

// WithWorkers bounds concurrent file transfers during a sync.
func WithWorkers(n int) Option {
	return func(c *executorConfig) {
		c.workers = n
	}
}

// WithFlushOnExit pushes the persistent store once after the core returns.
func WithFlushOnExit(enabled bool) Option {
	return func(c *executorConfig) {
		c.flushOnExit = enabled
	}
}

// WithHostFunctions exports additional host functions next to the bridge.
func WithHostFunctions(defs ...hostfuncs.Definition) Option {
	return func(c *executorConfig) {
		c.extra = append(c.extra, defs...)
	}
}
