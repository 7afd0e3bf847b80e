package speech

import "time"

// Default voice for chant synthesis. Chants in the catalog may override
// this per chant.
const (
	DefaultVoice = "hi-IN-Wavenet-D"
	DefaultLang  = "hi-IN"
)

// Audio format requested from the TTS service and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// LoopLead is how far before the end of a looping clip the next
// iteration is started. Large enough to absorb scheduling jitter,
// small enough that the handover stays inaudible.
const LoopLead = 500 * time.Millisecond

// Env var names for TTS service credentials.
const (
	EnvSpeechKey    = "NAAMJAAP_SPEECH_KEY"
	EnvSpeechRegion = "NAAMJAAP_SPEECH_REGION"
)
