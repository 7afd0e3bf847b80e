package timer

import (
	"testing"
	"time"

	"github.com/maheshwarip/naamjaap/internal/logger"
)

func TestClockAccumulates(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := NewClock(log, WithTickInterval(20*time.Millisecond))

	c.Start()
	time.Sleep(110 * time.Millisecond)
	c.Stop()

	got := c.Elapsed()
	if got < 3 || got > 6 {
		t.Fatalf("expected roughly 5 ticks, got %d", got)
	}
}

func TestClockStopFreezes(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := NewClock(log, WithTickInterval(20*time.Millisecond))

	c.Start()
	time.Sleep(70 * time.Millisecond)
	c.Stop()

	frozen := c.Elapsed()
	time.Sleep(100 * time.Millisecond)
	if c.Elapsed() != frozen {
		t.Fatalf("clock ticked after stop: %d -> %d", frozen, c.Elapsed())
	}
}

func TestClockResumesWithoutReset(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := NewClock(log, WithTickInterval(10*time.Millisecond))

	c.Start()
	time.Sleep(55 * time.Millisecond)
	c.Stop()
	before := c.Elapsed()
	if before == 0 {
		t.Fatal("expected some elapsed time before restart")
	}

	c.Start()
	time.Sleep(55 * time.Millisecond)
	c.Stop()
	after := c.Elapsed()
	if after <= before {
		t.Fatalf("expected elapsed to grow across restart, got %d -> %d", before, after)
	}
}

func TestClockIdempotentStartStop(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := NewClock(log, WithTickInterval(10*time.Millisecond))

	// Double start must not spawn a second ticker.
	c.Start()
	c.Start()
	time.Sleep(55 * time.Millisecond)
	c.Stop()
	c.Stop() // double stop must not panic

	got := c.Elapsed()
	if got > 8 {
		t.Fatalf("double start appears to have doubled the tick rate: %d", got)
	}
}

func TestClockReset(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := NewClock(log, WithTickInterval(10*time.Millisecond))

	c.Start()
	time.Sleep(35 * time.Millisecond)
	c.Reset()

	if c.Elapsed() != 0 {
		t.Fatalf("expected 0 after reset, got %d", c.Elapsed())
	}
	if c.Running() {
		t.Fatal("clock should be stopped after reset")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.seconds); got != tt.want {
			t.Errorf("FormatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
