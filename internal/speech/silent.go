package speech

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// Compile-time interface check.
var _ domain.UtteranceSource = (*Silent)(nil)

// Silent is an utterance source with no audio. It paces the cadence
// purely by time, estimating how long the chant would take to say.
// Used when the audio device or TTS credentials are unavailable, so the
// counter keeps working on any machine.
type Silent struct {
	log *logger.Logger

	mu  sync.Mutex
	cur *silentUtterance
}

type silentUtterance struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func (u *silentUtterance) fire() {
	u.once.Do(func() { close(u.done) })
}

func (u *silentUtterance) cancel() {
	u.timer.Stop()
	u.fire()
}

// NewSilent creates a silent source.
func NewSilent(log *logger.Logger) *Silent {
	return &Silent{log: log}
}

// Speak schedules a completion after the estimated utterance duration.
func (s *Silent) Speak(text string, rate float64) <-chan struct{} {
	u := &silentUtterance{done: make(chan struct{})}
	d := utteranceDuration(text, rate)
	u.timer = time.AfterFunc(d, u.fire)

	s.mu.Lock()
	prev := s.cur
	s.cur = u
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}

	s.log.Debug("silent: pacing %q for %s", text, d.Round(time.Millisecond))
	return u.done
}

// Stop cancels the pending timer. The completion still fires.
func (s *Silent) Stop() {
	s.mu.Lock()
	cur := s.cur
	s.cur = nil
	s.mu.Unlock()

	if cur != nil {
		cur.cancel()
	}
}

// utteranceDuration estimates speaking time from rune count, scaled by
// the rate multiplier. Roughly calibrated to spoken Hindi chants.
func utteranceDuration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1.0
	}
	runes := utf8.RuneCountInString(text)
	d := 400*time.Millisecond + time.Duration(runes)*120*time.Millisecond
	d = time.Duration(float64(d) / rate)
	if d < 300*time.Millisecond {
		d = 300 * time.Millisecond
	}
	return d
}
