package gpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maheshwarip/naamjaap/internal/logger"
)

func TestChatSendsMessagesAndReturnsReply(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("api-key header = %q", r.Header.Get("api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"om shanti"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", logger.New(logger.LevelOff, nil))
	reply, err := c.Chat(context.Background(), []Message{
		TextMessage(RoleSystem, "pick a voice"),
		TextMessage(RoleUser, "calm and deep"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "om shanti" {
		t.Fatalf("reply = %q", reply)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "calm and deep" {
		t.Fatalf("request messages = %+v", got.Messages)
	}
}

func TestChatErrorPaths(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"server error", http.StatusInternalServerError, "boom", "500"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "empty response"},
		{"bad json", http.StatusOK, `{`, "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", logger.New(logger.LevelOff, nil))
			_, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "hi")})
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("err = %v, want substring %q", err, tt.wantSub)
			}
		})
	}
}
