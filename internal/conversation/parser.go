// Package conversation provides intent parsing and user notification
// implementations.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using keywords and simple
// patterns. Inputs come from the keyboard or a transcribed voice
// command, so patterns stay forgiving.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// prefixRules carry the rest of the line as payload.
var prefixRules = []struct {
	prefix string
	intent domain.IntentType
}{
	{"chant ", domain.IntentSetChantText},
	{"text ", domain.IntentSetChantText},
	{"voice ", domain.IntentSuggestVoice},
	{"style ", domain.IntentSuggestVoice},
	{"select ", domain.IntentSelectChant},
	{"pick ", domain.IntentSelectChant},
	{"mode ", domain.IntentSetMode},
	{"speed ", domain.IntentSetSpeed},
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(t|tap|jaap|count|\+)$`), domain.IntentTap},
		{regexp.MustCompile(`(?i)^(start|play|go|begin|chalo)$`), domain.IntentStart},
		{regexp.MustCompile(`(?i)^(stop|pause|halt|ruko)$`), domain.IntentStop},
		{regexp.MustCompile(`(?i)^(auto|manual)$`), domain.IntentSetMode},
		{regexp.MustCompile(`(?i)^(list|chants|browse)$`), domain.IntentListChants},
		{regexp.MustCompile(`(?i)^(record|rec)$`), domain.IntentRecord},
		{regexp.MustCompile(`(?i)^(history|sessions|log)$`), domain.IntentHistory},
		{regexp.MustCompile(`(?i)^(status|where|progress|info)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(save|finish|end session)$`), domain.IntentSave},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q|bye)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts user input into an intent. A bare Enter counts one
// repetition, matching the one-thumb ergonomics of a physical counter.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentTap}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// Chant selection by number (e.g. "1", "2").
	if len(trimmed) <= 2 && isDigits(trimmed) {
		return &domain.Intent{Type: domain.IntentSelectChant, Payload: trimmed}, nil
	}

	// Keyword patterns.
	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched intent: %s", rule.intent)
			// "auto"/"manual" double as the payload.
			if rule.intent == domain.IntentSetMode {
				return &domain.Intent{Type: rule.intent, Payload: strings.ToLower(trimmed)}, nil
			}
			return &domain.Intent{Type: rule.intent}, nil
		}
	}

	// Prefix commands with a payload, e.g. "speed 70", "voice a calm
	// elderly saint", "chant राधे राधे".
	lower := strings.ToLower(trimmed)
	for _, rule := range prefixRules {
		if strings.HasPrefix(lower, rule.prefix) {
			payload := strings.TrimSpace(trimmed[len(rule.prefix):])
			if payload == "" {
				continue
			}
			p.log.Debug("matched prefix intent: %s (%q)", rule.intent, payload)
			return &domain.Intent{Type: rule.intent, Payload: payload}, nil
		}
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
