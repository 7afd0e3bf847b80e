// Package tally holds the authoritative in-memory chant tally and
// mirrors it opportunistically to external storage.
package tally

import (
	"context"
	"sync"
	"time"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// Option configures the counter.
type Option func(*Counter)

// WithClock overrides the time source. Used by tests to pin the daily
// stat date.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) {
		c.now = now
	}
}

// Counter owns the in-memory TallyState. Increment is synchronous and
// applies the mala rollover; persistence happens in the background and
// is coalesced so at most one write is ever in flight — a write started
// while another is pending replaces the queued state rather than
// growing a queue. Persistence failures are logged and the in-memory
// state stays authoritative.
type Counter struct {
	store domain.CounterStore
	daily domain.DailyStatStore
	log   *logger.Logger
	now   func() time.Time

	mu    sync.Mutex
	state domain.TallyState
	today int

	// Counter write coalescing.
	writing    bool
	pendingSet bool
	pending    domain.TallyState

	// Daily-stat delta coalescing.
	dailyWriting bool
	dailyDelta   int
}

// NewCounter creates a tally counter backed by the given sinks. Either
// sink may be shared with other components; both may be in-memory.
func NewCounter(store domain.CounterStore, daily domain.DailyStatStore, log *logger.Logger, opts ...Option) *Counter {
	c := &Counter{
		store: store,
		daily: daily,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load pulls the persisted tally and today's aggregate into memory.
// Called once at startup; after that the store is write-only.
func (c *Counter) Load(ctx context.Context) error {
	state, err := c.store.LoadCounter(ctx)
	if err != nil {
		return err
	}

	today, err := c.daily.Daily(ctx, domain.DateKey(c.now()))
	if err != nil {
		c.log.Warn("tally: loading today's stat: %v", err)
		today = 0
	}

	c.mu.Lock()
	c.state = state
	c.today = today
	c.mu.Unlock()

	c.log.Info("tally loaded: count=%d malas=%d today=%d", state.Count, state.MalaCount, today)
	return nil
}

// Increment adds one repetition, applying the mala rollover exactly
// once when Count reaches MalaSize. Returns the new state and whether a
// mala was completed. Persistence is scheduled, never awaited.
func (c *Counter) Increment() (domain.TallyState, bool) {
	c.mu.Lock()
	c.state.Count++
	rolled := false
	if c.state.Count >= domain.MalaSize {
		c.state.Count = 0
		c.state.MalaCount++
		rolled = true
	}
	c.today++
	state := c.state
	c.mu.Unlock()

	c.schedulePersist(state)
	c.scheduleDaily(1)
	return state, rolled
}

// State returns a copy of the current tally.
func (c *Counter) State() domain.TallyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Today returns today's in-memory chant count.
func (c *Counter) Today() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

// schedulePersist hands the latest state to the background writer. If a
// write is already in flight the state is parked; a newer state simply
// overwrites the parked one (latest wins, nothing queues up).
func (c *Counter) schedulePersist(state domain.TallyState) {
	c.mu.Lock()
	if c.writing {
		c.pending = state
		c.pendingSet = true
		c.mu.Unlock()
		return
	}
	c.writing = true
	c.mu.Unlock()

	go c.flush(state)
}

// flush writes states until none are parked. Runs on its own goroutine;
// only one flush loop exists at a time.
func (c *Counter) flush(state domain.TallyState) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.store.SaveCounter(ctx, state)
		cancel()
		if err != nil {
			// Non-fatal: memory is authoritative, the next increment
			// carries the newest state anyway.
			c.log.Warn("tally: persist failed (count=%d malas=%d): %v", state.Count, state.MalaCount, err)
		}

		c.mu.Lock()
		if c.pendingSet {
			state = c.pending
			c.pendingSet = false
			c.mu.Unlock()
			continue
		}
		c.writing = false
		c.mu.Unlock()
		return
	}
}

// scheduleDaily accumulates daily increments and flushes them with a
// single writer, mirroring the counter coalescing.
func (c *Counter) scheduleDaily(n int) {
	c.mu.Lock()
	if c.dailyWriting {
		c.dailyDelta += n
		c.mu.Unlock()
		return
	}
	c.dailyWriting = true
	c.mu.Unlock()

	go c.flushDaily(n)
}

func (c *Counter) flushDaily(n int) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.daily.AddDaily(ctx, domain.DateKey(c.now()), n)
		cancel()
		if err != nil {
			c.log.Warn("tally: daily stat update failed: %v", err)
		}

		c.mu.Lock()
		if c.dailyDelta > 0 {
			n = c.dailyDelta
			c.dailyDelta = 0
			c.mu.Unlock()
			continue
		}
		c.dailyWriting = false
		c.mu.Unlock()
		return
	}
}

// Sync blocks until no writes are in flight. Used on shutdown so the
// final state lands before the process exits.
func (c *Counter) Sync(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		idle := !c.writing && !c.dailyWriting
		c.mu.Unlock()
		if idle {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.log.Warn("tally: sync timed out with writes still in flight")
}
