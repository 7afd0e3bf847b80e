package domain

import "context"

// UtteranceSource produces one audible chant repetition per Speak call.
// Implementations: speech synthesis, a gapless clip looper, or a silent
// timed source when no audio backend is available.
type UtteranceSource interface {
	// Speak begins one utterance and returns a single-fire completion
	// channel. The channel is closed exactly once — when playback ends,
	// fails, or is stopped. The completion never fires synchronously
	// from inside Speak itself, and Speak must return quickly (it may
	// be called with the engine lock held).
	Speak(text string, rate float64) <-chan struct{}

	// Stop halts any in-flight utterance immediately. A pending
	// completion channel still fires; callers guard against acting on
	// it (see the cadence engine's generation token).
	Stop()
}

// CounterStore mirrors the in-memory tally externally. Writes are merge
// style: the latest state wins. The store is never read back mid-session.
type CounterStore interface {
	SaveCounter(ctx context.Context, state TallyState) error
	LoadCounter(ctx context.Context) (TallyState, error)
}

// DailyStatStore tracks the per-day chant aggregate. AddDaily uses
// increment-or-create semantics; implementations may use a non-atomic
// read-check-then-write (two concurrent writers can under-count — a
// documented limitation carried over from the original data model).
type DailyStatStore interface {
	AddDaily(ctx context.Context, date string, n int) error
	Daily(ctx context.Context, date string) (int, error)
}

// HistoryStore is the append-only log of finished chanting sessions.
type HistoryStore interface {
	AppendSession(ctx context.Context, rec SessionRecord) error
	ListSessions(ctx context.Context) ([]SessionRecord, error)
}

// Notifier delivers messages to the user. Implementations write to the
// terminal scrollback; urgent messages get stronger styling.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}
