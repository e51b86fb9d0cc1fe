package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_Resolution(t *testing.T) {
	c := NewSystem(DefaultResolution)
	assert.Equal(t, time.Millisecond, c.Resolution())

	now := c.Now()
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))

	assert.Equal(t, time.Nanosecond, NewSystem(0).Resolution())
}

func TestSystem_NonDecreasing(t *testing.T) {
	for _, res := range []time.Duration{0, time.Microsecond, time.Millisecond} {
		c := NewSystem(res)
		prev := c.Now()
		for i := 0; i < 1000; i++ {
			next := c.Now()
			// Wall-clock adjustments are an accepted exception; a stable
			// test clock never moves backwards.
			assert.False(t, next.Before(prev), "resolution %s", res)
			prev = next
		}
	}
}
