// Package engine implements the auto-chant cadence state machine.
//
// The engine drives repeated utterances through an UtteranceSource,
// increments the tally on each completion, and runs the session clock —
// all gated by the session's mode and active flag. Cancellation uses a
// generation token: every stop bumps the generation, so a completion
// from a cancelled utterance arrives, compares generations, and does
// nothing.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
	"github.com/maheshwarip/naamjaap/internal/tally"
	"github.com/maheshwarip/naamjaap/internal/timer"
)

// State is the engine's cadence state.
type State int

const (
	// StateIdle — no utterance in flight, cadence not running.
	StateIdle State = iota
	// StatePlaying — one utterance in flight, cadence re-arms on completion.
	StatePlaying
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Option configures the engine.
type Option func(*Engine)

// WithCycleGap sets the small pause between a completed utterance and
// the next one. Purely cosmetic; correctness never depends on it.
func WithCycleGap(d time.Duration) Option {
	return func(e *Engine) {
		e.cycleGap = d
	}
}

// WithNotifier sets the notifier used for mala-completion callouts.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithHistory sets the store finished sessions are appended to.
func WithHistory(h domain.HistoryStore) Option {
	return func(e *Engine) {
		e.history = h
	}
}

// Engine owns the ChantSession and coordinates the utterance source,
// tally counter, and session clock. All public entry points are safe
// for concurrent use and never panic or propagate utterance errors;
// a failed utterance counts as a completed one.
type Engine struct {
	tally    *tally.Counter
	clock    *timer.Clock
	log      *logger.Logger
	notifier domain.Notifier
	history  domain.HistoryStore
	cycleGap time.Duration

	mu      sync.Mutex
	session domain.ChantSession
	source  domain.UtteranceSource
	state   State
	gen     uint64      // bumped on every stop; stale completions are no-ops
	rearm   *time.Timer // pending re-issue between cycles
}

// New creates an idle engine around the given session defaults.
func New(session domain.ChantSession, source domain.UtteranceSource, counter *tally.Counter, clock *timer.Clock, log *logger.Logger, opts ...Option) *Engine {
	session.Active = false
	session.StartedAt = time.Now()
	e := &Engine{
		tally:    counter,
		clock:    clock,
		log:      log,
		cycleGap: 50 * time.Millisecond,
		session:  session,
		source:   source,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins the auto cadence. Valid only in auto mode from idle;
// anything else is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.session.Mode != domain.ModeAuto || e.state != StateIdle {
		e.mu.Unlock()
		return
	}
	e.session.Active = true
	e.state = StatePlaying
	gen := e.gen
	e.clock.Start()
	e.speakLocked(gen)
	e.mu.Unlock()

	e.log.Info("cadence started (chant=%q, rate=%.2f)", e.session.ChantText, e.session.Rate())
}

// speakLocked issues one utterance and arms its completion handler.
// Must be called with e.mu held; the source's Speak is non-blocking by
// contract, so holding the lock across it closes the race between
// issuing an utterance and a concurrent Stop.
func (e *Engine) speakLocked(gen uint64) {
	done := e.source.Speak(e.session.ChantText, e.session.Rate())
	go func() {
		<-done
		e.complete(gen)
	}()
}

// complete is the single utterance-completion handler. Failure and
// success look identical here: both advance the cadence. A stale
// generation means the utterance was cancelled after this completion
// was already in flight, so the whole call is a no-op.
func (e *Engine) complete(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state != StatePlaying || !e.session.Active {
		e.mu.Unlock()
		e.log.Debug("cadence: dropped stale completion (gen=%d)", gen)
		return
	}

	state, rolled := e.tally.Increment()
	e.session.SessionCount++
	if rolled {
		e.session.SessionMalas++
	}

	// Re-arm after the cosmetic gap. The timer callback re-checks the
	// generation, so a stop that lands in the gap wins.
	if e.rearm != nil {
		e.rearm.Stop()
	}
	e.rearm = time.AfterFunc(e.cycleGap, func() {
		e.mu.Lock()
		if gen == e.gen && e.state == StatePlaying && e.session.Active {
			e.speakLocked(gen)
		}
		e.mu.Unlock()
	})
	e.mu.Unlock()

	if rolled {
		e.log.Info("mala %d complete", state.MalaCount)
		if e.notifier != nil {
			e.notifier.Notify(context.Background(), fmt.Sprintf("Mala %d complete. %d japa in total.", state.MalaCount, state.TotalJapa()))
		}
	}
}

// Stop halts the cadence. Teardown ordering matters: mark the session
// inactive and bump the generation first (so a completion that is
// already in flight becomes a no-op), then silence the source, then
// clear the re-arm timer, then stop the clock. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasActive := e.session.Active
	e.session.Active = false
	e.state = StateIdle
	e.gen++
	e.source.Stop()
	if e.rearm != nil {
		e.rearm.Stop()
		e.rearm = nil
	}
	e.clock.Stop()
	e.mu.Unlock()

	if wasActive {
		e.log.Info("cadence stopped")
	}
}

// Tap is the manual-mode increment: a direct tally bump plus a
// fire-and-forget utterance. It never routes through the Playing state
// and ignores the utterance's completion entirely.
func (e *Engine) Tap() {
	e.mu.Lock()
	if e.session.Mode != domain.ModeManual {
		e.mu.Unlock()
		return
	}
	state, rolled := e.tally.Increment()
	e.session.SessionCount++
	if rolled {
		e.session.SessionMalas++
	}
	e.clock.Start()
	// Supersede any still-playing previous tap and let the new one
	// play out on its own.
	e.source.Stop()
	e.source.Speak(e.session.ChantText, e.session.Rate())
	e.mu.Unlock()

	if rolled {
		e.log.Info("mala %d complete", state.MalaCount)
		if e.notifier != nil {
			e.notifier.Notify(context.Background(), fmt.Sprintf("Mala %d complete. %d japa in total.", state.MalaCount, state.TotalJapa()))
		}
	}
}

// SetMode switches between manual and auto. Any running cadence is
// stopped first, so a mode switch mid-utterance cancels it cleanly.
func (e *Engine) SetMode(mode domain.ChantMode) {
	e.Stop()
	e.mu.Lock()
	e.session.Mode = mode
	e.mu.Unlock()
	e.log.Info("mode set to %s", mode)
}

// SetSpeed updates the 0..100 speed factor. Takes effect on the next
// utterance; the in-flight one finishes at its old rate.
func (e *Engine) SetSpeed(factor int) {
	if factor < 0 {
		factor = 0
	}
	if factor > 100 {
		factor = 100
	}
	e.mu.Lock()
	e.session.SpeedFactor = factor
	rate := e.session.Rate()
	e.mu.Unlock()
	e.log.Debug("speed factor %d (rate %.2f)", factor, rate)
}

// SetChantText updates the phrase. Takes effect on the next utterance.
func (e *Engine) SetChantText(text string) {
	e.mu.Lock()
	e.session.ChantText = text
	e.mu.Unlock()
}

// SetAudio swaps the audio selection and its utterance source. The
// running cadence is stopped first so the old source cannot complete
// into the new one.
func (e *Engine) SetAudio(sel domain.AudioSelection, source domain.UtteranceSource) {
	e.Stop()
	e.mu.Lock()
	e.session.Audio = sel
	e.source = source
	e.mu.Unlock()
	e.log.Info("audio source set to %s", sel.Kind)
}

// Snapshot returns a copy of the session plus the current tally for
// display. The UI never mutates engine state through this.
func (e *Engine) Snapshot() (domain.ChantSession, domain.TallyState) {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	return session, e.tally.State()
}

// State returns the cadence state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SaveSession stops the cadence, appends the session to the history
// log, and resets the per-session counters and clock. A session with
// zero repetitions is not recorded.
func (e *Engine) SaveSession(ctx context.Context) (domain.SessionRecord, error) {
	e.Stop()

	e.mu.Lock()
	rec := domain.SessionRecord{
		ID:         uuid.NewString(),
		StartTime:  e.session.StartedAt,
		EndTime:    time.Now(),
		TotalCount: e.session.SessionCount,
		MalaCount:  e.session.SessionMalas,
		ChantText:  e.session.ChantText,
	}
	e.session.SessionCount = 0
	e.session.SessionMalas = 0
	e.session.StartedAt = time.Now()
	e.mu.Unlock()

	e.clock.Reset()

	if rec.TotalCount == 0 {
		return rec, nil
	}
	if e.history == nil {
		return rec, nil
	}
	if err := e.history.AppendSession(ctx, rec); err != nil {
		return rec, fmt.Errorf("recording session: %w", err)
	}
	e.log.Info("session saved: %d japa, %d malas", rec.TotalCount, rec.MalaCount)
	return rec, nil
}
