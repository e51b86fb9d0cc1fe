// Package vfs provides the host's mountable filesystem: a volatile view
// (any afero.Fs) onto which durable backends are mounted, with an
// asynchronous sync primitive that reconciles each mount in either
// direction.
package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"sync"

	"github.com/spf13/afero"

	domainerrors "github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

// DefaultWorkers bounds concurrent file transfers during one reconcile.
const DefaultWorkers = 4

type fsConfig struct {
	logger  *slog.Logger
	workers int
}

func defaultFSConfig() fsConfig {
	return fsConfig{
		logger:  slog.Default(),
		workers: DefaultWorkers,
	}
}

// Option configures an FS.
type Option func(*fsConfig)

// WithLogger sets the logger for sync diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *fsConfig) {
		c.logger = logger
	}
}

// WithWorkers bounds concurrent file transfers (default 4).
func WithWorkers(n int) Option {
	return func(c *fsConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// FS implements ports.Filesystem over a volatile afero.Fs.
type FS struct {
	root   afero.Fs
	mounts map[string]ports.DurableBackend
	config fsConfig
	mu     sync.Mutex
}

var _ ports.Filesystem = (*FS)(nil)

// New returns a filesystem whose volatile view is root.
func New(root afero.Fs, opts ...Option) *FS {
	cfg := defaultFSConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FS{
		root:   root,
		mounts: make(map[string]ports.DurableBackend),
		config: cfg,
	}
}

// Root returns the volatile view.
func (f *FS) Root() afero.Fs {
	return f.root
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// Mkdir creates p and any missing parents. An existing directory is not
// an error; an existing file is.
func (f *FS) Mkdir(p string) error {
	p = cleanPath(p)
	info, err := f.root.Stat(p)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("mkdir %s: not a directory", p)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("mkdir %s: %w", p, err)
	}
	return f.root.MkdirAll(p, 0o777)
}

// Mount attaches backend at mountpoint. The mountpoint must exist.
// Mounting the same backend again is a no-op; a different backend
// returns ErrMountBusy.
func (f *FS) Mount(backend ports.DurableBackend, mountpoint string) error {
	mountpoint = cleanPath(mountpoint)
	info, err := f.root.Stat(mountpoint)
	if err != nil {
		return fmt.Errorf("mountpoint %s: %w", mountpoint, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mountpoint %s: not a directory", mountpoint)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.mounts[mountpoint]; ok {
		if existing == backend {
			return nil
		}
		return fmt.Errorf("mountpoint %s: %w", mountpoint, domainerrors.ErrMountBusy)
	}
	f.mounts[mountpoint] = backend
	f.config.logger.Debug("mounted durable backend", "mountpoint", mountpoint, "backend", backend.Name())
	return nil
}

// Unmount detaches the backend at mountpoint. The volatile files stay.
func (f *FS) Unmount(mountpoint string) error {
	mountpoint = cleanPath(mountpoint)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.mounts[mountpoint]; !ok {
		return fmt.Errorf("unmount %s: %w", mountpoint, domainerrors.ErrNotMounted)
	}
	delete(f.mounts, mountpoint)
	return nil
}

// IsMounted reports whether a backend is attached at mountpoint.
func (f *FS) IsMounted(mountpoint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.mounts[cleanPath(mountpoint)]
	return ok
}

type mount struct {
	backend ports.DurableBackend
	point   string
}

func (f *FS) snapshot() []mount {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]mount, 0, len(f.mounts))
	for p, b := range f.mounts {
		out = append(out, mount{point: p, backend: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].point < out[j].point })
	return out
}

// SyncFS reconciles every mount in a new goroutine and reports the first
// error through callback, which is invoked exactly once.
// populate=true copies durable state into the volatile view.
func (f *FS) SyncFS(ctx context.Context, populate bool, callback func(error)) {
	mounts := f.snapshot()
	go func() {
		callback(f.syncMounts(ctx, populate, mounts))
	}()
}

func (f *FS) syncMounts(ctx context.Context, populate bool, mounts []mount) error {
	for _, m := range mounts {
		local := &localSide{fs: f.root, root: m.point}
		remote := &remoteSide{backend: m.backend}

		var (
			stats reconcileStats
			err   error
		)
		if populate {
			stats, err = reconcile(ctx, remote, local, f.config.workers)
		} else {
			stats, err = reconcile(ctx, local, remote, f.config.workers)
			if err == nil {
				err = m.backend.Flush(ctx)
			}
		}
		if err != nil {
			return fmt.Errorf("sync %s: %w", m.point, err)
		}
		f.config.logger.DebugContext(ctx, "reconciled mount",
			"mountpoint", m.point,
			"populate", populate,
			"created", stats.created,
			"removed", stats.removed,
		)
	}
	return nil
}
