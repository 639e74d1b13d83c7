package xmodem

import (
	"sync"
	"time"
)

// ProgressTracker tracks reassembly progress and invokes progress callbacks.
type ProgressTracker struct {
	mu sync.Mutex

	received   int64
	blocks     int
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64

	callback       func(int64, int, float64)
	updateInterval time.Duration
	now            func() time.Time
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker(callback func(int64, int, float64), interval time.Duration) *ProgressTracker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	return &ProgressTracker{
		callback:       callback,
		updateInterval: interval,
		now:            time.Now,
	}
}

// Start resets the tracker for a new transfer.
func (pt *ProgressTracker) Start() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.received = 0
	pt.blocks = 0
	pt.startTime = pt.now()
	pt.lastUpdate = pt.startTime
	pt.lastBytes = 0
}

// Update records the totals and invokes the callback if enough time has passed.
func (pt *ProgressTracker) Update(received int64, blocks int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.received = received
	pt.blocks = blocks

	now := pt.now()
	if now.Sub(pt.lastUpdate) < pt.updateInterval {
		return
	}

	elapsed := now.Sub(pt.lastUpdate).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(received-pt.lastBytes) / elapsed
	}

	if pt.callback != nil {
		pt.callback(received, blocks, rate)
	}

	pt.lastUpdate = now
	pt.lastBytes = received
}

// Complete issues a final update and returns the transfer duration.
func (pt *ProgressTracker) Complete() time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	duration := pt.now().Sub(pt.startTime)

	if pt.callback != nil {
		pt.callback(pt.received, pt.blocks, 0)
	}

	return duration
}

// GetStats returns current progress statistics.
func (pt *ProgressTracker) GetStats() (received int64, blocks int, rate float64, duration time.Duration) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	received = pt.received
	blocks = pt.blocks
	duration = pt.now().Sub(pt.startTime)

	if duration.Seconds() > 0 {
		rate = float64(received) / duration.Seconds()
	}

	return
}
