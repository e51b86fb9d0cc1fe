package entities

import (
	"time"

	"github.com/google/uuid"
)

// SyncDirection selects which side of a mount is authoritative for a sync.
type SyncDirection int

const (
	// Pull loads the durable backend into the volatile view.
	Pull SyncDirection = iota
	// Push flushes the volatile view back to the durable backend.
	Push
)

// Populate returns the boolean flag the host sync primitive expects:
// true when the volatile view is populated from durable storage.
func (d SyncDirection) Populate() bool {
	return d == Pull
}

// DirectionFromPopulate is the inverse of Populate.
func DirectionFromPopulate(populate bool) SyncDirection {
	if populate {
		return Pull
	}
	return Push
}

func (d SyncDirection) String() string {
	switch d {
	case Pull:
		return "pull"
	case Push:
		return "push"
	default:
		return "unknown"
	}
}

// SyncState is a state of the blocking sync state machine:
// Idle -> Requested -> (SettledOK | SettledError) -> Idle.
type SyncState int32

const (
	SyncIdle SyncState = iota
	SyncRequested
	SyncSettledOK
	SyncSettledError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncRequested:
		return "requested"
	case SyncSettledOK:
		return "settled_ok"
	case SyncSettledError:
		return "settled_error"
	default:
		return "unknown"
	}
}

// Settled reports whether the state is one of the terminal settle states.
func (s SyncState) Settled() bool {
	return s == SyncSettledOK || s == SyncSettledError
}

// SyncResult records the outcome of one sync request.
type SyncResult struct {
	// ID correlates the request with its log lines.
	ID uuid.UUID `json:"id"`

	// Direction is the sync direction that was requested.
	Direction SyncDirection `json:"direction"`

	// StartedAt is when the request was issued to the host.
	StartedAt time.Time `json:"started_at"`

	// SettledAt is when the host callback fired.
	SettledAt time.Time `json:"settled_at"`

	// Err is the host-reported failure, nil on success.
	Err error `json:"-"`
}

// OK reports whether the sync settled successfully.
func (r SyncResult) OK() bool {
	return r.Err == nil
}

// Duration is the time between issuing the request and its settlement.
func (r SyncResult) Duration() time.Duration {
	if r.SettledAt.IsZero() {
		return 0
	}
	return r.SettledAt.Sub(r.StartedAt)
}
