package hostfuncs

import (
	"errors"
	"fmt"

	domainerrors "github.com/reglet-dev/hostbridge/domain/errors"
)

// Status is the i32 result code returned to the guest by sync_fs.
type Status int32

const (
	StatusOK             Status = 0
	StatusSyncFailed     Status = 1
	StatusNotMounted     Status = 2
	StatusSyncInProgress Status = 3
	StatusInternal       Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSyncFailed:
		return "sync_failed"
	case StatusNotMounted:
		return "not_mounted"
	case StatusSyncInProgress:
		return "sync_in_progress"
	case StatusInternal:
		return "internal"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// StatusOf maps a bridge error to the guest status code.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, domainerrors.ErrNotMounted):
		return StatusNotMounted
	case errors.Is(err, domainerrors.ErrSyncInProgress):
		return StatusSyncInProgress
	case domainerrors.IsSyncFailure(err):
		return StatusSyncFailed
	default:
		return StatusInternal
	}
}

// NotFoundError is returned when invoking an unknown host function.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "unknown host function: " + e.Name
}

// PanicError is a recovered panic from a host function.
type PanicError struct {
	Value    any
	Function string
}

// NewPanicError creates an error for a recovered panic value.
func NewPanicError(function string, value any) *PanicError {
	return &PanicError{Function: function, Value: value}
}

func (e *PanicError) Error() string {
	var msg string
	switch v := e.Value.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = "panic recovered"
	}
	return fmt.Sprintf("host function %s panicked: %s", e.Function, msg)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
