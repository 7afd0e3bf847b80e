package gpt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// chatter is the model surface the Suggester needs. Satisfied by *Client.
type chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// VoiceSuggestion is the JSON the model returns for a style request.
type VoiceSuggestion struct {
	VoiceName            string `json:"voice_name"`
	Lang                 string `json:"lang"`
	FeasibilityReasoning string `json:"feasibility_reasoning,omitempty"`
}

// Voice converts the suggestion to a domain voice config.
func (v VoiceSuggestion) Voice() domain.VoiceConfig {
	return domain.VoiceConfig{VoiceName: v.VoiceName, Lang: v.Lang}
}

// Suggester turns a free-text voice style description into a concrete
// TTS voice. It is the single entry-point the app calls for AI features.
type Suggester struct {
	client chatter
	log    *logger.Logger
}

// NewSuggester creates a voice suggester backed by the given client.
func NewSuggester(client chatter, log *logger.Logger) *Suggester {
	return &Suggester{client: client, log: log}
}

// SuggestVoice asks the model which voice fits the described style.
// Returns ErrNoVoice when the model declines to pick one; the
// FeasibilityReasoning in the returned suggestion still explains why.
func (s *Suggester) SuggestVoice(ctx context.Context, style string) (VoiceSuggestion, error) {
	messages := []Message{
		TextMessage(RoleSystem, PromptVoiceStyle),
		TextMessage(RoleUser, style),
	}
	raw, err := s.client.Chat(ctx, messages)
	if err != nil {
		return VoiceSuggestion{}, err
	}

	// Strip markdown code fences if the model wraps the JSON (common).
	raw = stripCodeFence(raw)

	var suggestion VoiceSuggestion
	if err := json.Unmarshal([]byte(raw), &suggestion); err != nil {
		s.log.Error("gpt: failed to parse voice JSON: %v\nraw: %s", err, raw)
		return VoiceSuggestion{}, domain.ErrNoVoice
	}

	if suggestion.VoiceName == "" {
		s.log.Debug("gpt: no voice for style %q: %s", style, suggestion.FeasibilityReasoning)
		return suggestion, domain.ErrNoVoice
	}

	s.log.Debug("gpt: style %q -> %s (%s)", style, suggestion.VoiceName, suggestion.Lang)
	return suggestion, nil
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence line.
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence.
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
