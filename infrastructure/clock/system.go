// Package clock provides the host real-time clock.
package clock

import "time"

// DefaultResolution mirrors the coarse wall clock of browser hosts.
const DefaultResolution = time.Millisecond

// System reads time.Now truncated to a fixed resolution.
type System struct {
	resolution time.Duration
}

// NewSystem returns a clock truncating to resolution.
// A resolution <= 0 keeps the full precision of the OS clock.
func NewSystem(resolution time.Duration) *System {
	return &System{resolution: resolution}
}

// Now returns the current wall-clock time.
func (c *System) Now() time.Time {
	now := time.Now()
	if c.resolution > 0 {
		// Truncate also strips the monotonic reading.
		return now.Truncate(c.resolution)
	}
	return now.Round(0)
}

// Resolution returns the clock resolution; 1ns when untruncated.
func (c *System) Resolution() time.Duration {
	if c.resolution <= 0 {
		return time.Nanosecond
	}
	return c.resolution
}
