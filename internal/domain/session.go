package domain

import "time"

// MalaSize is the number of repetitions in one complete mala.
const MalaSize = 108

// ChantMode selects how the counter advances.
type ChantMode int

const (
	// ModeManual — each repetition requires an explicit tap.
	ModeManual ChantMode = iota
	// ModeAuto — the cadence engine drives repetitions by itself.
	ModeAuto
)

// String returns a human-readable mode name.
func (m ChantMode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// AudioKind tags which utterance strategy a session uses.
type AudioKind int

const (
	// AudioSpeech — synthesized speech from the chant text.
	AudioSpeech AudioKind = iota
	// AudioClip — a pre-recorded clip looped seamlessly.
	AudioClip
)

// String returns a human-readable audio kind.
func (k AudioKind) String() string {
	switch k {
	case AudioSpeech:
		return "speech"
	case AudioClip:
		return "clip"
	default:
		return "unknown"
	}
}

// VoiceConfig identifies a TTS voice and its language tag.
type VoiceConfig struct {
	VoiceName string
	Lang      string
}

// AudioSelection is a tagged variant: either a speech voice or a clip path.
type AudioSelection struct {
	Kind     AudioKind
	Voice    VoiceConfig // valid when Kind == AudioSpeech
	ClipPath string      // valid when Kind == AudioClip
}

// ChantSession is one continuous period of chanting. It is owned by the
// cadence engine; the UI only ever sees copies.
type ChantSession struct {
	ChantText   string
	Audio       AudioSelection
	SpeedFactor int // 0..100, maps to a playback rate of 0.5..2.0
	Mode        ChantMode
	Active      bool
	StartedAt   time.Time

	// Progress within this session only (the all-time tally lives in
	// the tally counter).
	SessionCount int
	SessionMalas int
}

// Rate converts the 0..100 speed factor to a playback/speech rate
// multiplier in [0.5, 2.0].
func (s *ChantSession) Rate() float64 {
	f := s.SpeedFactor
	if f < 0 {
		f = 0
	}
	if f > 100 {
		f = 100
	}
	return 0.5 + (float64(f)/100)*1.5
}

// TallyState is the authoritative chant tally. Count stays in [0, MalaSize);
// reaching MalaSize rolls it to 0 and bumps MalaCount by exactly one.
type TallyState struct {
	Count     int
	MalaCount int
}

// TotalJapa is the derived lifetime repetition count.
func (t TallyState) TotalJapa() int {
	return t.MalaCount*MalaSize + t.Count
}

// DailyStat is a per-calendar-day chant aggregate, keyed by a YYYY-MM-DD
// date string.
type DailyStat struct {
	Date       string
	ChantCount int
}

// DateKey formats a time as the YYYY-MM-DD key used for daily stats.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SessionRecord is one finished chanting session in the history log.
type SessionRecord struct {
	ID         string
	StartTime  time.Time
	EndTime    time.Time
	TotalCount int
	MalaCount  int
	ChantText  string
}
