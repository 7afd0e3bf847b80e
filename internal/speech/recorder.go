package speech

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/maheshwarip/naamjaap/internal/logger"
)

// envAnnotation matches whisper environmental annotations like
// "(breathing)", "[music]", "(speaking Hindi)", etc.
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s]*[\)\]]`)

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithRecordDuration sets how long one recording lasts.
func WithRecordDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.duration = d }
}

// WithRecordDir sets the directory where recorded WAV files land.
func WithRecordDir(dir string) RecorderOption {
	return func(r *Recorder) { r.recordDir = dir }
}

// Recorder captures a short voice recording through a local Whisper
// model. It yields both the transcript (to set the chant text) and the
// recorded WAV file (to feed the clip looper), so the user can chant in
// their own voice.
type Recorder struct {
	whisperBin string
	modelPath  string
	recordDir  string
	duration   time.Duration
	log        *logger.Logger
}

// Recording is the result of one capture.
type Recording struct {
	Transcript string
	WavPath    string // recorded audio, empty if no file was produced
}

// NewRecorder creates a voice recorder.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
func NewRecorder(whisperBin, modelPath string, log *logger.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		whisperBin: whisperBin,
		modelPath:  modelPath,
		recordDir:  ".naamjaap-rec",
		duration:   6 * time.Second,
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Validate that the whisper binary is reachable.
	if _, err := exec.LookPath(r.whisperBin); err != nil {
		log.Error("recorder: whisper binary %q not found in PATH: %v", r.whisperBin, err)
	}

	return r
}

// Duration returns the configured recording length.
func (r *Recorder) Duration() time.Duration { return r.duration }

// Record captures one recording of the configured duration and returns
// the cleaned transcript plus the path of the captured WAV file.
func (r *Recorder) Record(ctx context.Context) (Recording, error) {
	var transcript string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		transcript = text
		wg.Done()
	}

	verbose := r.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		r.whisperBin,
		r.modelPath,
		r.recordDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		return Recording{}, err
	}

	started := time.Now()
	if err := t.Start(); err != nil {
		return Recording{}, err
	}
	r.log.Info("recorder: capturing for %s", r.duration)

	select {
	case <-time.After(r.duration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return Recording{}, ctx.Err()
	}

	t.Stop()
	wg.Wait()

	rec := Recording{
		Transcript: cleanTranscription(transcript),
		WavPath:    r.latestWav(started),
	}
	r.log.Info("recorder: heard %q (wav=%s)", rec.Transcript, rec.WavPath)
	return rec, nil
}

// latestWav finds the WAV file the transcriber wrote during this
// capture, if any.
func (r *Recorder) latestWav(since time.Time) string {
	entries, err := os.ReadDir(r.recordDir)
	if err != nil {
		return ""
	}
	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".wav" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().Before(since) {
			continue
		}
		if info.ModTime().After(newestMod) {
			newestMod = info.ModTime()
			newest = filepath.Join(r.recordDir, e.Name())
		}
	}
	return newest
}

// ── Transcription cleanup ────────────────────────────────────────

// cleanTranscription strips whitespace, normalizes newlines, and
// removes common whisper artifacts like "[BLANK_AUDIO]", "(silence)",
// etc. Artifacts are stripped from anywhere in the text, not just as
// exact full-string matches.
func cleanTranscription(s string) string {
	// Normalize newlines and collapse whitespace.
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)

	// Junk patterns to strip from anywhere in the text.
	junkPatterns := []string{
		"[BLANK_AUDIO]",
		"[BLANK AUDIO]",
		"(silence)",
		"[silence]",
		"(no speech)",
		"[no speech]",
		"[Music]",
		"(music)",
		"(breathing)",
		"(sighing)",
		"(coughing)",
		"(chanting)",
		"(bell ringing)",
		"(background noise)",
		"(inaudible)",
		"(unintelligible)",
		"(static)",
	}
	for _, j := range junkPatterns {
		s = strings.ReplaceAll(s, j, "")
		s = strings.ReplaceAll(s, strings.ToLower(j), "")
		s = strings.ReplaceAll(s, strings.ToUpper(j), "")
	}

	// Collapse any whitespace created by removals.
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)

	// Catch-all: strip any remaining (parenthesized) or [bracketed]
	// environmental annotations whisper may produce.
	s = envAnnotation.ReplaceAllString(s, "")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)

	// If what remains is just a known hallucination, discard entirely.
	hallucinations := []string{
		"...",
		"you",
		"Thank you.",
		"Thanks for watching!",
		"Thank you for watching.",
		"Bye.",
		"The end.",
	}
	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if strings.ToLower(h) == lower {
			return ""
		}
	}

	// Strip whisper timestamp prefixes like "[00:00:00.000 --> 00:00:05.000]"
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			rest := strings.TrimSpace(s[idx+1:])
			if rest != "" {
				return rest
			}
		}
	}

	return s
}
