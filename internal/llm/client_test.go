package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/marlowe/inkwell/internal/apperr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func reply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		RequestsPerMinute: 6000,
	}, testLogger())
}

func TestComplete_Success(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(reply("**Draft**\n\nbody")))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.Complete(context.Background(), Prompts{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "**Draft**\n\nbody" {
		t.Errorf("content = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "usr" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestComplete_RetriesOn429(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(reply("eventual reply")))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.Complete(context.Background(), Prompts{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "eventual reply" {
		t.Errorf("content = %q", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestComplete_ExhaustedRetriesIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Complete(context.Background(), Prompts{})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestComplete_AuthFailureNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Complete(context.Background(), Prompts{})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestComplete_EmptyReplyIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(reply("   ")))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Complete(context.Background(), Prompts{})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestComplete_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testClient(srv.URL)
	if _, err := c.Complete(ctx, Prompts{}); err == nil {
		t.Error("expected error on cancelled context")
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"```\nfenced body\n```", "fenced body"},
		{"```markdown\nfenced body\n```", "fenced body"},
		{"  ```\nwith space\n```  ", "with space"},
		{"```", ""},
	}
	for _, c := range cases {
		if got := stripFence(c.in); got != c.want {
			t.Errorf("stripFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPromptTruncation(t *testing.T) {
	longStyle := strings.Repeat("s", maxStyleRunes+500)
	longContent := strings.Repeat("c", maxContentRunes+500)

	p := DraftPrompts("Title", longContent, longStyle, "voice")
	if strings.Count(p.System, "s") > maxStyleRunes {
		t.Error("style reference not truncated")
	}
	if strings.Count(p.User, "c") > maxContentRunes {
		t.Error("content not truncated")
	}
}

func TestNotesPromptsCarryContract(t *testing.T) {
	p := NotesPrompts("Title", "content", "style", "voice")
	for _, marker := range []string{"Key Insight:", "**Think about it:**", "**Summary:**", "---"} {
		if !strings.Contains(p.System, marker) {
			t.Errorf("notes prompt missing %q", marker)
		}
	}
}
