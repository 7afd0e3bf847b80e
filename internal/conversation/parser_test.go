package conversation

import (
	"context"
	"testing"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input       string
		wantType    domain.IntentType
		wantPayload string
	}{
		// Tap variants — bare Enter is the big one.
		{"", domain.IntentTap, ""},
		{"t", domain.IntentTap, ""},
		{"tap", domain.IntentTap, ""},
		{"+", domain.IntentTap, ""},

		// Start/stop
		{"start", domain.IntentStart, ""},
		{"play", domain.IntentStart, ""},
		{"chalo", domain.IntentStart, ""},
		{"stop", domain.IntentStop, ""},
		{"pause", domain.IntentStop, ""},

		// Mode
		{"auto", domain.IntentSetMode, "auto"},
		{"manual", domain.IntentSetMode, "manual"},
		{"mode auto", domain.IntentSetMode, "auto"},

		// Speed
		{"speed 70", domain.IntentSetSpeed, "70"},
		{"speed 0", domain.IntentSetSpeed, "0"},

		// Catalog
		{"list", domain.IntentListChants, ""},
		{"chants", domain.IntentListChants, ""},
		{"1", domain.IntentSelectChant, "1"},
		{"7", domain.IntentSelectChant, "7"},
		{"select 3", domain.IntentSelectChant, "3"},
		{"pick 2", domain.IntentSelectChant, "2"},

		// Chant text
		{"chant राधे राधे", domain.IntentSetChantText, "राधे राधे"},
		{"text om shanti", domain.IntentSetChantText, "om shanti"},

		// Voice style
		{"voice a calm elderly saint", domain.IntentSuggestVoice, "a calm elderly saint"},
		{"style Indian female voice", domain.IntentSuggestVoice, "Indian female voice"},

		// Recording, history, session
		{"record", domain.IntentRecord, ""},
		{"history", domain.IntentHistory, ""},
		{"status", domain.IntentStatus, ""},
		{"save", domain.IntentSave, ""},

		// Help / quit
		{"help", domain.IntentHelp, ""},
		{"?", domain.IntentHelp, ""},
		{"quit", domain.IntentQuit, ""},
		{"q", domain.IntentQuit, ""},

		// Unknown
		{"flamboyant nonsense", domain.IntentUnknown, "flamboyant nonsense"},
		{"voice ", domain.IntentUnknown, "voice"},
	}

	for _, tt := range tests {
		name := tt.input
		if name == "" {
			name = "<enter>"
		}
		t.Run(name, func(t *testing.T) {
			intent, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent.Type != tt.wantType {
				t.Errorf("input=%q: got type %s, want %s", tt.input, intent.Type, tt.wantType)
			}
			if tt.wantPayload != "" && intent.Payload != tt.wantPayload {
				t.Errorf("input=%q: got payload %q, want %q", tt.input, intent.Payload, tt.wantPayload)
			}
		})
	}
}
