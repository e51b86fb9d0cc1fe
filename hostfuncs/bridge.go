package hostfuncs

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/infrastructure/clock"
	"github.com/reglet-dev/hostbridge/infrastructure/entropy"
)

// DefaultMountpoint is where the persistent store is mounted in the guest.
const DefaultMountpoint = "/persist"

// Bridge exposes the host capabilities to a compiled core: entropy,
// wall-clock time, and a persistent store whose sync looks blocking to
// the caller.
//
// Only one sync may be in flight at a time; the store is assumed to have
// a single writer.
type Bridge struct {
	fs      ports.Filesystem
	backend ports.DurableBackend
	config  bridgeConfig

	mountMu sync.Mutex

	state  atomic.Int32 // entities.SyncState
	lastMu sync.Mutex
	last   entities.SyncResult
}

type bridgeConfig struct {
	entropy    ports.EntropySource
	clock      ports.Clock
	logger     *slog.Logger
	mountpoint string
}

func defaultBridgeConfig() bridgeConfig {
	return bridgeConfig{
		entropy:    entropy.NewCrypto(),
		clock:      clock.NewSystem(clock.DefaultResolution),
		logger:     slog.Default(),
		mountpoint: DefaultMountpoint,
	}
}

// BridgeOption configures a Bridge.
type BridgeOption func(*bridgeConfig)

// WithEntropy sets the entropy source used for random seeds.
func WithEntropy(src ports.EntropySource) BridgeOption {
	return func(c *bridgeConfig) {
		c.entropy = src
	}
}

// WithClock sets the real-time clock.
func WithClock(clk ports.Clock) BridgeOption {
	return func(c *bridgeConfig) {
		c.clock = clk
	}
}

// WithLogger sets the logger used for sync diagnostics.
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(c *bridgeConfig) {
		c.logger = logger
	}
}

// WithMountpoint sets the mountpoint of the persistent store (default "/persist").
func WithMountpoint(path string) BridgeOption {
	return func(c *bridgeConfig) {
		c.mountpoint = path
	}
}

// NewBridge creates a bridge that mounts backend on fs.
// Both fs and backend are required.
func NewBridge(fs ports.Filesystem, backend ports.DurableBackend, opts ...BridgeOption) *Bridge {
	cfg := defaultBridgeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bridge{fs: fs, backend: backend, config: cfg}
}

// Mountpoint returns the mountpoint of the persistent store.
func (b *Bridge) Mountpoint() string {
	return b.config.mountpoint
}

// Clock returns the clock the bridge reads time from.
func (b *Bridge) Clock() ports.Clock {
	return b.config.clock
}

// Entropy returns the entropy source the bridge draws seeds from.
func (b *Bridge) Entropy() ports.EntropySource {
	return b.config.entropy
}

// RandomSeed returns a 64-bit seed built from two independent 32-bit
// draws, the first occupying the high half.
func (b *Bridge) RandomSeed() uint64 {
	high := b.config.entropy.Uint32()
	low := b.config.entropy.Uint32()
	return (uint64(high) << 32) | uint64(low)
}

// UnixTimeNanos returns nanoseconds since the Unix epoch. The resolution
// is that of the configured clock and may be as coarse as a millisecond.
func (b *Bridge) UnixTimeNanos() uint64 {
	return uint64(b.config.clock.Now().UnixNano()) //nolint:gosec // G115: pre-epoch clocks wrap like the guest expects
}

// State returns the current state of the sync state machine.
func (b *Bridge) State() entities.SyncState {
	return entities.SyncState(b.state.Load())
}

// LastResult returns the outcome of the most recent settled sync.
func (b *Bridge) LastResult() entities.SyncResult {
	b.lastMu.Lock()
	defer b.lastMu.Unlock()
	return b.last
}

func (b *Bridge) setLast(r entities.SyncResult) {
	b.lastMu.Lock()
	defer b.lastMu.Unlock()
	b.last = r
}
