package speech

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/maheshwarip/naamjaap/internal/logger"
)

// fakeStream stands in for an oto-backed clip iteration so the loop can
// be driven without an audio device.
type fakeStream struct {
	mu      sync.Mutex
	rem     int
	playing bool
	started bool
	closed  bool
}

func (s *fakeStream) play() {
	s.mu.Lock()
	s.started = true
	s.playing = true
	s.mu.Unlock()
}

func (s *fakeStream) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rem
}

func (s *fakeStream) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rem == 0 && !s.playing
}

func (s *fakeStream) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeStream) setRemaining(n int) {
	s.mu.Lock()
	s.rem = n
	s.mu.Unlock()
}

// finish marks the stream fully drained.
func (s *fakeStream) finish() {
	s.mu.Lock()
	s.rem = 0
	s.playing = false
	s.mu.Unlock()
}

func (s *fakeStream) wasStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *fakeStream) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// streamFactory hands out fake streams in creation order.
type streamFactory struct {
	mu      sync.Mutex
	streams []*fakeStream
}

func (f *streamFactory) next(pcm []byte) stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Start far from the switch-over threshold; tests move it.
	s := &fakeStream{rem: loopLeadBytes() * 4}
	f.streams = append(f.streams, s)
	return s
}

func (f *streamFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

// at blocks until stream i exists.
func (f *streamFactory) at(t *testing.T, i int) *fakeStream {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if i < len(f.streams) {
			s := f.streams[i]
			f.mu.Unlock()
			return s
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("stream %d never created", i)
	return nil
}

func newTestLooper(t *testing.T) (*ClipLooper, *streamFactory) {
	t.Helper()
	l := NewClipLooper(nil, logger.New(logger.LevelOff, nil))
	l.tick = time.Millisecond
	f := &streamFactory{}
	l.newStream = f.next
	l.mu.Lock()
	l.pcm = []byte{1, 2, 3, 4}
	l.mu.Unlock()
	t.Cleanup(l.Stop)
	return l, f
}

func assertOpen(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
		t.Fatal("completion fired without a finished traversal")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestClipLooperOneCompletionPerTraversal(t *testing.T) {
	l, f := newTestLooper(t)

	done := l.Speak("", 1.0)
	s0 := f.at(t, 0)
	assertOpen(t, done)

	s0.finish()
	waitDone(t, done)

	if !s0.wasClosed() {
		t.Fatal("finished stream was not closed")
	}
}

func TestClipLooperBanksUnclaimedTraversal(t *testing.T) {
	l, f := newTestLooper(t)

	done := l.Speak("", 1.0)
	f.at(t, 0).finish()
	waitDone(t, done)

	// Second traversal ends while nobody is waiting; the credit is
	// banked and the next Speak claims it without a new traversal.
	f.at(t, 1).finish()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		banked := l.pendingDone
		l.mu.Unlock()
		if banked == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	waitDone(t, l.Speak("", 1.0))
}

func TestClipLooperStopDiscardsInFlightCompletion(t *testing.T) {
	l, f := newTestLooper(t)

	done := l.Speak("", 1.0)
	f.at(t, 0)

	l.mu.Lock()
	stopCh := l.stopCh
	l.mu.Unlock()

	l.Stop()
	waitDone(t, done)

	// A traversal that was already past its stop check when Stop landed
	// reports its completion afterwards. It belongs to the dead loop and
	// must not be banked for the next session.
	l.completeOne(stopCh)

	l.mu.Lock()
	banked := l.pendingDone
	l.mu.Unlock()
	if banked != 0 {
		t.Fatalf("pendingDone = %d after stop, want 0", banked)
	}

	// The next session starts from silence: no phantom completion.
	assertOpen(t, l.Speak("", 1.0))
}

func TestClipLooperLeadHandoff(t *testing.T) {
	l, f := newTestLooper(t)

	done := l.Speak("", 1.0)
	s0 := f.at(t, 0)

	time.Sleep(10 * time.Millisecond)
	if f.count() != 1 {
		t.Fatalf("standby started early: %d streams", f.count())
	}

	// Crossing the lead threshold arms the standby while the active
	// stream is still playing.
	s0.setRemaining(loopLeadBytes())
	s1 := f.at(t, 1)
	if !s1.wasStarted() {
		t.Fatal("standby was created but never started")
	}
	assertOpen(t, done)

	s0.finish()
	waitDone(t, done)
	if !s0.wasClosed() {
		t.Fatal("drained stream was not closed")
	}
	if s1.wasClosed() {
		t.Fatal("promoted standby must keep playing")
	}
}

func TestClipLooperStopFiresAllWaiters(t *testing.T) {
	l, f := newTestLooper(t)

	first := l.Speak("", 1.0)
	second := l.Speak("", 1.0)
	s0 := f.at(t, 0)

	l.Stop()
	waitDone(t, first)
	waitDone(t, second)

	deadline := time.Now().Add(2 * time.Second)
	for !s0.wasClosed() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !s0.wasClosed() {
		t.Fatal("stop left the active stream open")
	}
}

func TestResamplePCM(t *testing.T) {
	// 8 mono 16-bit frames.
	pcm := make([]byte, 16)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i))
	}

	tests := []struct {
		name      string
		rate      float64
		wantBytes int
	}{
		{"normal speed unchanged", 1.0, 16},
		{"double speed halves", 2.0, 8},
		{"half speed doubles", 0.5, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := resamplePCM(pcm, tt.rate)
			if len(out) != tt.wantBytes {
				t.Fatalf("len = %d, want %d", len(out), tt.wantBytes)
			}
			if len(out)%2 != 0 {
				t.Fatal("output not frame-aligned")
			}
		})
	}
}

func TestResamplePCMPreservesFrameValues(t *testing.T) {
	pcm := make([]byte, 16)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i*100))
	}

	out := resamplePCM(pcm, 2.0)
	// At double speed, output frame i comes from source frame 2i.
	for i := 0; i < len(out)/2; i++ {
		got := binary.LittleEndian.Uint16(out[i*2:])
		want := uint16(i * 2 * 100)
		if got != want {
			t.Fatalf("frame %d = %d, want %d", i, got, want)
		}
	}
}

func TestResamplePCMDegenerateInputs(t *testing.T) {
	if out := resamplePCM(nil, 2.0); len(out) != 0 {
		t.Fatal("nil input must pass through")
	}
	if out := resamplePCM([]byte{1, 2, 3, 4}, -1); !bytes.Equal(out, []byte{1, 2, 3, 4}) {
		t.Fatal("non-positive rate must pass through")
	}
}

func TestLoopLeadBytes(t *testing.T) {
	// 24kHz mono 16-bit = 48000 bytes/s; 500ms lead = 24000 bytes.
	if got := loopLeadBytes(); got != 24000 {
		t.Fatalf("loopLeadBytes = %d, want 24000", got)
	}
}

func TestPCMDuration(t *testing.T) {
	oneSecond := make([]byte, SampleRate*ChannelCount*(BitDepth/8))
	if got := pcmDuration(oneSecond); got != time.Second {
		t.Fatalf("duration = %s, want 1s", got)
	}
}

func TestExtractPCMWalksChunks(t *testing.T) {
	// WAV with an extra chunk before "data".
	var buf bytes.Buffer
	pcm := []byte{1, 2, 3, 4, 5, 6}
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.Write([]byte("INFO"))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	got, err := extractPCM(buf.Bytes())
	if err != nil {
		t.Fatalf("extractPCM: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("pcm = %v, want %v", got, pcm)
	}
}

func TestExtractPCMRejectsGarbage(t *testing.T) {
	if _, err := extractPCM([]byte("short")); err == nil {
		t.Fatal("expected error for short input")
	}
	junk := make([]byte, 64)
	if _, err := extractPCM(junk); err == nil {
		t.Fatal("expected error for non-RIFF input")
	}
}

func TestCleanTranscription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  राधा राधा  \n", "राधा राधा"},
		{"[BLANK_AUDIO]", ""},
		{"(silence)", ""},
		{"राम राम (breathing)", "राम राम"},
		{"Thank you.", ""},
		{"[00:00:00.000 --> 00:00:05.000] ॐ नमः शिवाय", "ॐ नमः शिवाय"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanTranscription(tt.in); got != tt.want {
			t.Errorf("cleanTranscription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
