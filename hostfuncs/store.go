package hostfuncs

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/reglet-dev/hostbridge/domain/entities"
	domainerrors "github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/internal/await"
)

// Mount creates the mountpoint, attaches the durable backend and loads it
// into the volatile view, blocking until the load settles.
//
// Mount is idempotent: while the store is mounted further calls return
// nil without re-attaching or reloading, so unflushed state is kept.
// When the load fails the backend is detached again and the next call
// retries it.
func (b *Bridge) Mount(ctx context.Context) error {
	b.mountMu.Lock()
	defer b.mountMu.Unlock()

	mp := b.config.mountpoint
	logger := b.config.logger.With("mountpoint", mp, "backend", b.backend.Name())

	if b.fs.IsMounted(mp) {
		logger.DebugContext(ctx, "persistent store already mounted")
		return nil
	}

	logger.InfoContext(ctx, "mounting persistent store")
	if err := b.fs.Mkdir(mp); err != nil {
		return &domainerrors.MountError{Mountpoint: mp, Err: err}
	}
	if err := b.fs.Mount(b.backend, mp); err != nil {
		return &domainerrors.MountError{Mountpoint: mp, Err: err}
	}

	if _, err := b.sync(ctx, entities.Pull); err != nil {
		// A half-loaded view must never be pushed over the durable state.
		if uerr := b.fs.Unmount(mp); uerr != nil {
			logger.ErrorContext(ctx, "failed to detach persistent store after load failure", "error", uerr)
			return errors.Join(err, uerr)
		}
		logger.WarnContext(ctx, "persistent store left unmounted, next mount retries the load", "error", err)
		return err
	}
	return nil
}

// Unmount detaches the backend. Unflushed volatile state is not written.
func (b *Bridge) Unmount(ctx context.Context) error {
	b.mountMu.Lock()
	defer b.mountMu.Unlock()

	if !b.fs.IsMounted(b.config.mountpoint) {
		return nil
	}
	b.config.logger.InfoContext(ctx, "unmounting persistent store", "mountpoint", b.config.mountpoint)
	return b.fs.Unmount(b.config.mountpoint)
}

// Mounted reports whether the persistent store is attached.
func (b *Bridge) Mounted() bool {
	return b.fs.IsMounted(b.config.mountpoint)
}

// Sync flushes the volatile view to the durable backend and blocks until
// the host acknowledges the write or reports a failure.
//
// A host failure is logged and returned as a *errors.SyncError.
func (b *Bridge) Sync(ctx context.Context) error {
	if !b.fs.IsMounted(b.config.mountpoint) {
		return domainerrors.ErrNotMounted
	}
	_, err := b.sync(ctx, entities.Push)
	return err
}

// sync issues one SyncFS request and parks the caller until its callback
// settles it. The request is detached from ctx cancellation: once issued
// it always runs to settlement.
func (b *Bridge) sync(ctx context.Context, dir entities.SyncDirection) (entities.SyncResult, error) {
	if !b.state.CompareAndSwap(int32(entities.SyncIdle), int32(entities.SyncRequested)) {
		return entities.SyncResult{}, domainerrors.ErrSyncInProgress
	}
	defer b.state.Store(int32(entities.SyncIdle))

	result := entities.SyncResult{
		ID:        uuid.New(),
		Direction: dir,
		StartedAt: b.config.clock.Now(),
	}
	logger := b.config.logger.With("sync_id", result.ID.String(), "direction", dir.String())
	logger.InfoContext(ctx, "starting filesystem sync")

	pending := await.New[struct{}]()
	b.fs.SyncFS(context.WithoutCancel(ctx), dir.Populate(), func(err error) {
		if !pending.Settle(err) {
			logger.WarnContext(ctx, "ignoring duplicate sync completion", "error", err)
		}
	})

	_, err := pending.Wait()
	result.SettledAt = b.config.clock.Now()
	result.Err = err

	if err != nil {
		b.state.Store(int32(entities.SyncSettledError))
		logger.ErrorContext(ctx, "error syncing filesystem", "error", err)
		err = &domainerrors.SyncError{Err: err, Direction: dir, RequestID: result.ID}
	} else {
		b.state.Store(int32(entities.SyncSettledOK))
		logger.InfoContext(ctx, "filesystem sync finished", "elapsed", result.Duration())
	}

	b.setLast(result)
	return result, err
}
