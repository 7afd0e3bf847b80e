package speech

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// Compile-time interface check.
var _ domain.UtteranceSource = (*ClipLooper)(nil)

// ClipLooper plays a pre-recorded chant clip in a seamless loop. The
// next iteration is started LoopLead before the current one ends, so on
// the wire the chant never pauses, even across Speak calls. One
// completion fires per full traversal of the clip.
//
// Speed is applied by resampling the PCM up front; oto itself has no
// rate control.
type ClipLooper struct {
	player    *Player
	log       *logger.Logger
	newStream func(pcm []byte) stream
	tick      time.Duration

	mu          sync.Mutex
	pcm         []byte // clip at normal speed
	rate        float64
	resampled   []byte // clip at the current rate
	running     bool
	stopCh      chan struct{}
	waiters     []chan struct{}
	pendingDone int // traversals finished with no waiter registered yet
}

// NewClipLooper creates a clip looper sharing the process audio player.
func NewClipLooper(player *Player, log *logger.Logger) *ClipLooper {
	l := &ClipLooper{player: player, log: log, rate: 1.0, tick: 25 * time.Millisecond}
	l.newStream = func(pcm []byte) stream {
		return newClipStream(player, pcm)
	}
	return l
}

// Load reads a WAV file and prepares it for looping. Replaces any
// previously loaded clip.
func (l *ClipLooper) Load(path string) error {
	wav, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read clip: %w", err)
	}
	pcm, err := extractPCM(wav)
	if err != nil {
		return fmt.Errorf("decode clip %s: %w", path, err)
	}

	l.mu.Lock()
	l.pcm = pcm
	l.resampled = nil
	l.mu.Unlock()

	l.log.Info("clip loaded: %s (%d bytes PCM, %.1fs)", path, len(pcm), pcmDuration(pcm).Seconds())
	return nil
}

// Loaded reports whether a clip is ready to play.
func (l *ClipLooper) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pcm != nil
}

// Speak returns a channel that closes when one full traversal of the
// clip finishes. The loop itself keeps playing continuously; Speak only
// subscribes to the next boundary. Text is ignored, the clip is the
// utterance.
func (l *ClipLooper) Speak(text string, rate float64) <-chan struct{} {
	done := make(chan struct{})

	l.mu.Lock()
	if l.pcm == nil {
		l.mu.Unlock()
		l.log.Error("clip: %v", domain.ErrClipNotLoaded)
		go close(done)
		return done
	}
	if l.resampled == nil || rate != l.rate {
		l.rate = rate
		l.resampled = resamplePCM(l.pcm, rate)
	}
	if l.pendingDone > 0 {
		// A traversal already finished while nobody was waiting.
		l.pendingDone--
		l.mu.Unlock()
		go close(done)
		return done
	}
	l.waiters = append(l.waiters, done)
	if !l.running {
		l.running = true
		l.stopCh = make(chan struct{})
		go l.loop(l.stopCh)
	}
	l.mu.Unlock()

	return done
}

// Stop halts the loop immediately. All pending completions fire.
func (l *ClipLooper) Stop() {
	l.mu.Lock()
	if l.running {
		close(l.stopCh)
		l.running = false
	}
	waiters := l.waiters
	l.waiters = nil
	l.pendingDone = 0
	l.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
}

// loop drives the double-buffered playback until stopCh closes. Each
// iteration gets its own oto player over a fresh reader; the standby
// player starts LoopLead before the active one drains.
func (l *ClipLooper) loop(stopCh chan struct{}) {
	l.mu.Lock()
	buf := l.resampled
	l.mu.Unlock()

	active := l.newStream(buf)
	active.play()
	var standby stream

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			active.close()
			if standby != nil {
				standby.close()
			}
			l.log.Debug("clip loop stopped")
			return
		case <-ticker.C:
		}

		if standby == nil && active.remaining() <= loopLeadBytes() {
			// Pick up the latest buffer so a speed change lands on the
			// next iteration boundary.
			l.mu.Lock()
			buf = l.resampled
			l.mu.Unlock()
			standby = l.newStream(buf)
			standby.play()
		}

		if active.finished() {
			active.close()
			l.completeOne(stopCh)
			if standby == nil {
				// Clip shorter than the lead window; start over directly.
				standby = l.newStream(buf)
				standby.play()
			}
			active = standby
			standby = nil
		}
	}
}

// completeOne fires one traversal completion, banking it if no Speak is
// currently waiting. The completion belongs to one loop instance: if
// Stop has already torn that instance down (or a new loop replaced it),
// the completion is dropped rather than banked, so no credit leaks into
// the next session.
func (l *ClipLooper) completeOne(stopCh chan struct{}) {
	l.mu.Lock()
	if !l.running || stopCh != l.stopCh {
		l.mu.Unlock()
		l.log.Debug("clip: dropped completion from stopped loop")
		return
	}
	var done chan struct{}
	if len(l.waiters) > 0 {
		done = l.waiters[0]
		l.waiters = l.waiters[1:]
	} else {
		l.pendingDone++
	}
	l.mu.Unlock()

	if done != nil {
		close(done)
	}
}

// stream is one playback iteration of the clip. The real implementation
// wraps an oto player; tests substitute their own.
type stream interface {
	play()
	remaining() int
	finished() bool
	close()
}

// clipStream is one iteration of the clip: a reader plus the oto player
// consuming it.
type clipStream struct {
	r *bytes.Reader
	p *oto.Player
}

func newClipStream(player *Player, pcm []byte) *clipStream {
	r := bytes.NewReader(pcm)
	return &clipStream{r: r, p: player.newStream(r)}
}

func (s *clipStream) play() { s.p.Play() }

// remaining is the unplayed byte count: what the player hasn't read yet
// plus what it has buffered but not rendered.
func (s *clipStream) remaining() int {
	return s.r.Len() + s.p.BufferedSize()
}

func (s *clipStream) finished() bool {
	return s.r.Len() == 0 && !s.p.IsPlaying()
}

func (s *clipStream) close() {
	if err := s.p.Close(); err != nil {
		// Best-effort close.
		_ = err
	}
}

// loopLeadBytes converts LoopLead to a PCM byte count.
func loopLeadBytes() int {
	bytesPerSecond := SampleRate * ChannelCount * (BitDepth / 8)
	return int(float64(bytesPerSecond) * LoopLead.Seconds())
}

// pcmDuration returns the playing time of a PCM buffer at normal speed.
func pcmDuration(pcm []byte) time.Duration {
	bytesPerSecond := SampleRate * ChannelCount * (BitDepth / 8)
	return time.Duration(float64(len(pcm)) / float64(bytesPerSecond) * float64(time.Second))
}

// resamplePCM time-stretches 16-bit PCM by nearest-neighbor sampling.
// rate > 1 shortens the clip (faster chant), rate < 1 lengthens it.
func resamplePCM(pcm []byte, rate float64) []byte {
	const frame = ChannelCount * (BitDepth / 8)
	if rate == 1.0 || len(pcm) < frame || rate <= 0 {
		return pcm
	}
	n := len(pcm) / frame
	outN := int(float64(n) / rate)
	if outN < 1 {
		outN = 1
	}
	out := make([]byte, outN*frame)
	for i := 0; i < outN; i++ {
		src := int(float64(i) * rate)
		if src >= n {
			src = n - 1
		}
		copy(out[i*frame:(i+1)*frame], pcm[src*frame:src*frame+frame])
	}
	return out
}
