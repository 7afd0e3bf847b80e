package domain

// Chant is a pre-configured chant: the phrase plus either a default TTS
// voice or a bundled audio clip. Entries with a ClipPath play the clip;
// entries with a VoiceName synthesize the text.
type Chant struct {
	ID          string
	Text        string
	Description string
	VoiceName   string
	Lang        string
	ClipPath    string
}

// Selection converts the chant's defaults into an AudioSelection.
func (c Chant) Selection() AudioSelection {
	if c.ClipPath != "" {
		return AudioSelection{Kind: AudioClip, ClipPath: c.ClipPath}
	}
	return AudioSelection{
		Kind:  AudioSpeech,
		Voice: VoiceConfig{VoiceName: c.VoiceName, Lang: c.Lang},
	}
}
