package speech

import (
	"context"
	"sync"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// synthesizer is the TTS surface Synth needs. Satisfied by *TTSClient.
type synthesizer interface {
	Synthesize(ctx context.Context, text string, voice domain.VoiceConfig, rate float64) ([]byte, error)
}

// wavPlayer is the playback surface Synth needs. Satisfied by *Player.
type wavPlayer interface {
	Play(wavData []byte) error
	Stop()
}

// Compile-time interface check.
var _ domain.UtteranceSource = (*Synth)(nil)

// SynthOption configures the Synth.
type SynthOption func(*Synth)

// WithCacheDir sets the filesystem directory used for persistent audio
// caching. If empty, the disk layer is disabled (pure in-memory).
func WithCacheDir(dir string) SynthOption {
	return func(s *Synth) {
		s.cacheDir = dir
	}
}

// WithDiskWrite controls whether new cache entries are written to disk.
// Even when false, existing on-disk entries are still read.
func WithDiskWrite(enabled bool) SynthOption {
	return func(s *Synth) {
		s.diskWrite = enabled
	}
}

// Synth is the speech-synthesis utterance source. Each Speak call
// synthesizes the chant text (cache first) and plays it once; the
// returned channel closes when playback ends, fails, or is stopped.
// Identical text at the same voice and rate is synthesized exactly once
// per process thanks to the audio cache, so a steady chanting session
// costs one TTS round trip up front and nothing after.
type Synth struct {
	tts    synthesizer
	player wavPlayer
	log    *logger.Logger
	cache  *AudioCache

	mu        sync.Mutex
	voice     domain.VoiceConfig
	cancel    context.CancelFunc // in-flight utterance, nil when idle
	cacheDir  string
	diskWrite bool
}

// NewSynth creates a speech-synthesis source speaking with the given voice.
func NewSynth(tts synthesizer, player wavPlayer, voice domain.VoiceConfig, log *logger.Logger, opts ...SynthOption) *Synth {
	s := &Synth{
		tts:       tts,
		player:    player,
		voice:     voice,
		log:       log,
		diskWrite: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewAudioCache(s.cacheDir, s.diskWrite, log)
	return s
}

// SetVoice switches the voice used for subsequent utterances.
func (s *Synth) SetVoice(voice domain.VoiceConfig) {
	s.mu.Lock()
	s.voice = voice
	s.mu.Unlock()
	s.log.Debug("synth: voice set to %s (%s)", voice.VoiceName, voice.Lang)
}

// Voice returns the current voice.
func (s *Synth) Voice() domain.VoiceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// Speak synthesizes and plays one repetition of the chant. Returns
// quickly; the real work happens in a goroutine. The completion channel
// closes exactly once, even when synthesis fails or Stop interrupts
// playback mid-utterance.
func (s *Synth) Speak(text string, rate float64) <-chan struct{} {
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	voice := s.voice
	s.mu.Unlock()

	go func() {
		defer close(done)

		audio, err := s.synthesizeWithCache(ctx, text, voice, rate)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error("synth: synthesis failed: %v", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.player.Play(audio); err != nil {
			s.log.Error("synth: playback failed: %v", err)
		}
	}()

	return done
}

// Stop cancels any in-flight synthesis and halts playback. The pending
// completion channel still fires.
func (s *Synth) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.player.Stop()
}

// synthesizeWithCache checks the cache first, otherwise calls the TTS
// service and stores the result. Thread-safe.
func (s *Synth) synthesizeWithCache(ctx context.Context, text string, voice domain.VoiceConfig, rate float64) ([]byte, error) {
	if audio, ok := s.cache.Get(text, voice, rate); ok {
		return audio, nil
	}
	audio, err := s.tts.Synthesize(ctx, text, voice, rate)
	if err != nil {
		return nil, err
	}
	s.cache.Put(text, voice, rate, audio)
	return audio, nil
}

// Prefetch pre-synthesizes the given texts in background goroutines and
// stores the results in the audio cache, skipping texts that are already
// cached. Non-blocking. Call it when the chant or speed changes so the
// first repetition starts without a synthesis round trip.
func (s *Synth) Prefetch(ctx context.Context, rate float64, texts ...string) {
	s.mu.Lock()
	voice := s.voice
	s.mu.Unlock()

	for _, text := range texts {
		if text == "" || s.cache.Has(text, voice, rate) {
			continue
		}
		go func(t string) {
			s.log.Debug("prefetch: synthesizing: %s", truncateForLog(t, 50))
			audio, err := s.tts.Synthesize(ctx, t, voice, rate)
			if err != nil {
				s.log.Error("prefetch: synthesis failed: %v", err)
				return
			}
			s.cache.Put(t, voice, rate, audio)
			s.log.Debug("prefetch: cached %d bytes for: %s", len(audio), truncateForLog(t, 50))
		}(text)
	}
}

// Cache returns the audio cache. Useful for stats/logging.
func (s *Synth) Cache() *AudioCache { return s.cache }
