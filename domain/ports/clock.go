package ports

import "time"

// Clock reads the host real-time clock.
// The resolution of the returned time is implementation defined.
type Clock interface {
	Now() time.Time
}
