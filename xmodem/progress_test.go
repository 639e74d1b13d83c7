package xmodem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestProgressTrackerRateLimited(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var calls []float64
	pt := NewProgressTracker(func(received int64, blocks int, rate float64) {
		calls = append(calls, rate)
	}, time.Second)
	pt.now = clock.now

	pt.Start()
	pt.Update(5, 1)
	assert.Empty(t, calls, "too soon for an update")

	clock.advance(2 * time.Second)
	pt.Update(25, 5)
	if assert.Len(t, calls, 1) {
		assert.InDelta(t, 12.5, calls[0], 0.001)
	}

	clock.advance(time.Second)
	assert.Equal(t, 3*time.Second, pt.Complete())
	assert.Len(t, calls, 2)
	assert.Equal(t, float64(0), calls[1])

	received, blocks, rate, duration := pt.GetStats()
	assert.Equal(t, int64(25), received)
	assert.Equal(t, 5, blocks)
	assert.Equal(t, 3*time.Second, duration)
	assert.InDelta(t, 25.0/3.0, rate, 0.001)
}

func TestProgressTrackerDefaultInterval(t *testing.T) {
	pt := NewProgressTracker(nil, 0)
	assert.Equal(t, 100*time.Millisecond, pt.updateInterval)

	pt.Start()
	pt.Update(1, 1)
	pt.Complete()
}
