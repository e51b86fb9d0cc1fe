// Package errors provides the typed errors of the host bridge.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/reglet-dev/hostbridge/domain/entities"
)

var (
	// ErrNotMounted is returned by a flush issued before the store is mounted.
	ErrNotMounted = stdErrors.New("persistent store is not mounted")

	// ErrSyncInProgress is returned when a sync is requested while another
	// one has not settled yet.
	ErrSyncInProgress = stdErrors.New("filesystem sync already in progress")

	// ErrMountBusy is returned when a mountpoint already has a different backend.
	ErrMountBusy = stdErrors.New("mountpoint busy")

	// ErrAlreadyReleased is returned when a request context is released twice.
	ErrAlreadyReleased = entities.ErrAlreadyReleased
)

// SyncError is a sync failure reported by the host completion callback.
type SyncError struct {
	Err       error
	Direction entities.SyncDirection
	RequestID uuid.UUID
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("filesystem %s sync %s failed: %v", e.Direction, e.RequestID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// MountError is a failure to create or attach a mountpoint.
type MountError struct {
	Err        error
	Mountpoint string
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s failed: %v", e.Mountpoint, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// BackendError is a failure of a durable backend operation on one path.
type BackendError struct {
	Err       error
	Backend   string
	Operation string
	Path      string
}

func (e *BackendError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s backend %s %q: %v", e.Backend, e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("%s backend %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsSyncFailure reports whether err carries a host-reported sync failure.
func IsSyncFailure(err error) bool {
	var se *SyncError
	return stdErrors.As(err, &se)
}
