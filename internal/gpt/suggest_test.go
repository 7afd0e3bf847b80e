package gpt

import (
	"context"
	"errors"
	"testing"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

type fakeChatter struct {
	reply string
	err   error
}

func (f *fakeChatter) Chat(ctx context.Context, messages []Message) (string, error) {
	return f.reply, f.err
}

func TestSuggestVoiceParsesJSON(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	s := NewSuggester(&fakeChatter{
		reply: `{"voice_name": "hi-IN-Wavenet-B", "lang": "hi-IN", "feasibility_reasoning": "A deep male Hindi voice is the closest match."}`,
	}, log)

	got, err := s.SuggestVoice(context.Background(), "a calm elderly saint")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got.VoiceName != "hi-IN-Wavenet-B" || got.Lang != "hi-IN" {
		t.Fatalf("got %+v", got)
	}
	if want := (domain.VoiceConfig{VoiceName: "hi-IN-Wavenet-B", Lang: "hi-IN"}); got.Voice() != want {
		t.Fatalf("voice = %+v, want %+v", got.Voice(), want)
	}
}

func TestSuggestVoiceStripsCodeFence(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	s := NewSuggester(&fakeChatter{
		reply: "```json\n{\"voice_name\": \"en-US-Wavenet-A\", \"lang\": \"en-US\"}\n```",
	}, log)

	got, err := s.SuggestVoice(context.Background(), "gentle english voice")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got.VoiceName != "en-US-Wavenet-A" {
		t.Fatalf("got %+v", got)
	}
}

func TestSuggestVoiceDeclined(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	s := NewSuggester(&fakeChatter{
		reply: `{"voice_name": "", "lang": "", "feasibility_reasoning": "Whispering with echo needs audio effects, not a voice."}`,
	}, log)

	got, err := s.SuggestVoice(context.Background(), "whispering with echo")
	if !errors.Is(err, domain.ErrNoVoice) {
		t.Fatalf("err = %v, want ErrNoVoice", err)
	}
	if got.FeasibilityReasoning == "" {
		t.Fatal("reasoning should survive the ErrNoVoice return")
	}
}

func TestSuggestVoiceGarbageReply(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	s := NewSuggester(&fakeChatter{reply: "sure, I'd pick a Hindi voice!"}, log)

	if _, err := s.SuggestVoice(context.Background(), "anything"); !errors.Is(err, domain.ErrNoVoice) {
		t.Fatalf("err = %v, want ErrNoVoice", err)
	}
}

func TestSuggestVoiceClientError(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	wantErr := errors.New("network down")
	s := NewSuggester(&fakeChatter{err: wantErr}, log)

	if _, err := s.SuggestVoice(context.Background(), "anything"); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
