// Package timer implements the session clock: a 1 Hz elapsed-time
// accumulator that runs while a chanting session is active.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/maheshwarip/naamjaap/internal/logger"
)

// ClockOption configures the clock.
type ClockOption func(*Clock)

// WithTickInterval overrides the tick interval. Used by tests to run
// the clock faster than wall time.
func WithTickInterval(d time.Duration) ClockOption {
	return func(c *Clock) {
		c.tickInterval = d
	}
}

// Clock counts elapsed whole seconds while started. Start and Stop are
// idempotent; Stop guarantees no trailing tick is recorded afterwards.
// Elapsed time accumulates across start/stop pairs until Reset.
type Clock struct {
	log          *logger.Logger
	tickInterval time.Duration

	mu      sync.Mutex
	running bool
	elapsed int
	stopCh  chan struct{}
}

// NewClock creates a stopped clock at zero elapsed seconds.
func NewClock(log *logger.Logger, opts ...ClockOption) *Clock {
	c := &Clock{
		log:          log,
		tickInterval: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins ticking. Starting an already-running clock is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	go c.loop(c.stopCh)
	c.log.Debug("clock started (elapsed=%ds)", c.elapsed)
}

// Stop freezes the clock. Stopping an already-stopped clock is a no-op.
// Elapsed time is preserved; a later Start resumes from it.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.stopCh)
	c.stopCh = nil
	c.log.Debug("clock stopped (elapsed=%ds)", c.elapsed)
}

// Reset stops the clock and zeroes the elapsed time.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.running = false
		close(c.stopCh)
		c.stopCh = nil
	}
	c.elapsed = 0
	c.log.Debug("clock reset")
}

// Elapsed returns the accumulated whole seconds.
func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Running reports whether the clock is currently ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// loop ticks until stopCh closes. The running check under the lock
// guards against a tick that was already queued when Stop was called.
func (c *Clock) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.running && c.stopCh == stopCh {
				c.elapsed++
			}
			c.mu.Unlock()
		}
	}
}

// FormatElapsed renders seconds as HH:MM:SS for display.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
