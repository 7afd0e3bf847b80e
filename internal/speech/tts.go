// Package speech provides the utterance sources that give a chant its
// voice: synthesized speech, a gapless clip loop, and a silent fallback.
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// TTSOption configures the TTS client.
type TTSOption func(*TTSClient)

// WithAudioFormat sets the audio output format.
func WithAudioFormat(format string) TTSOption {
	return func(c *TTSClient) {
		c.format = format
	}
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests. This
// doubles as the watchdog for a hung synthesis call: the request fails
// and the utterance completes.
func WithHTTPTimeout(d time.Duration) TTSOption {
	return func(c *TTSClient) {
		c.httpClient.Timeout = d
	}
}

// TTSClient synthesizes chant audio over HTTP. Voice, language, and
// speaking rate are per-request so one client serves every chant in the
// catalog.
type TTSClient struct {
	subscriptionKey string
	region          string
	format          string
	httpClient      *http.Client
	log             *logger.Logger
}

// NewTTSClient creates a TTS client with the given credentials.
func NewTTSClient(key, region string, log *logger.Logger, opts ...TTSOption) *TTSClient {
	c := &TTSClient{
		subscriptionKey: key,
		region:          region,
		format:          DefaultAudioFormat,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize converts chant text to WAV bytes using the given voice at
// the given rate multiplier (1.0 = normal speed).
func (c *TTSClient) Synthesize(ctx context.Context, text string, voice domain.VoiceConfig, rate float64) ([]byte, error) {
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.region)

	ssml := buildSSML(text, voice, rate)
	c.log.Debug("tts: synthesizing %d chars with voice %s at rate %.2f", len(text), voice.VoiceName, rate)

	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "NaamJaap/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts error %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}

	c.log.Debug("tts: got %d bytes of audio", len(audioData))
	return audioData, nil
}

// buildSSML creates SSML markup for the synthesis request. The rate
// multiplier becomes a prosody percentage offset.
func buildSSML(text string, voice domain.VoiceConfig, rate float64) string {
	lang := voice.Lang
	if lang == "" {
		lang = DefaultLang
	}
	name := voice.VoiceName
	if name == "" {
		name = DefaultVoice
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'><prosody rate='%s'>%s</prosody></voice></speak>`,
		lang, lang, name, prosodyRate(rate), text,
	)
}

// prosodyRate formats a rate multiplier as an SSML percentage offset:
// 1.0 -> "+0%", 1.5 -> "+50%", 0.5 -> "-50%".
func prosodyRate(rate float64) string {
	pct := (rate - 1.0) * 100
	return fmt.Sprintf("%+.0f%%", pct)
}
