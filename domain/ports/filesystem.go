package ports

import (
	"context"

	"github.com/reglet-dev/hostbridge/domain/entities"
)

// Filesystem is the host's mountable filesystem with an asynchronous,
// bidirectional sync primitive.
type Filesystem interface {
	// Mkdir creates path. An existing directory is not an error.
	Mkdir(path string) error

	// Mount attaches backend at mountpoint, which must already exist.
	// Mounting the same backend twice is a no-op.
	Mount(backend DurableBackend, mountpoint string) error

	// Unmount detaches whatever backend is mounted at mountpoint.
	Unmount(mountpoint string) error

	// IsMounted reports whether a backend is attached at mountpoint.
	IsMounted(mountpoint string) bool

	// SyncFS reconciles every mount with its backend in the background.
	// populate=true loads durable state into the volatile view, false
	// flushes the volatile view. callback is invoked exactly once, from
	// another goroutine, with the first error or nil.
	SyncFS(ctx context.Context, populate bool, callback func(error))
}

// DurableBackend is the durable key-value storage behind a mount.
// Paths are slash separated and relative to the mountpoint.
type DurableBackend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// List returns metadata for every stored entry.
	List(ctx context.Context) ([]entities.EntryInfo, error)

	// Load returns one entry including its contents.
	Load(ctx context.Context, path string) (entities.Entry, error)

	// Store creates or replaces an entry.
	Store(ctx context.Context, entry entities.Entry) error

	// Remove deletes an entry. Removing a missing entry is not an error.
	Remove(ctx context.Context, path string) error

	// Flush makes every completed Store and Remove durable.
	Flush(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
