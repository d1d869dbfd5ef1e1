package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
)

// fakeModelServer fails the first failCount completion requests with
// status, then succeeds
func fakeModelServer(t *testing.T, failCount int, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if int(n) <= failCount {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error": {"message": "induced failure", "type": "server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"pong"}}]}`)
	}))
	t.Cleanup(server.Close)
	return server, &attempts
}

func newTestOllamaRepo(host string, maxAttempts int) repo.LLMRepo {
	return NewOllamaRepo(OllamaConfig{
		Host:           host,
		Model:          "test-model",
		MaxAttempts:    maxAttempts,
		AttemptTimeout: 5 * time.Second,
	})
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	server, attempts := fakeModelServer(t, 0, http.StatusInternalServerError)
	r := newTestOllamaRepo(server.URL, 3)

	text, err := r.Generate(context.Background(), "be brief", nil, "ping")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if text != "pong" {
		t.Errorf("Generate() = %q, want pong", text)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestGenerateRetriesTransientThenSucceeds(t *testing.T) {
	server, attempts := fakeModelServer(t, 1, http.StatusInternalServerError)
	r := newTestOllamaRepo(server.URL, 3)

	text, err := r.Generate(context.Background(), "be brief", nil, "ping")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if text != "pong" {
		t.Errorf("Generate() = %q, want pong", text)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestGenerateExhaustsTransientFailures(t *testing.T) {
	server, attempts := fakeModelServer(t, 100, http.StatusInternalServerError)
	r := newTestOllamaRepo(server.URL, 2)

	_, err := r.Generate(context.Background(), "be brief", nil, "ping")
	var genErr *repo.GenerateError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error = %v, want *GenerateError", err)
	}
	if genErr.Kind != repo.KindTransientExhausted {
		t.Errorf("failure kind = %s, want %s", genErr.Kind, repo.KindTransientExhausted)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want exactly max attempts 2", got)
	}
}

func TestGeneratePermanentFailureIsNotRetried(t *testing.T) {
	server, attempts := fakeModelServer(t, 100, http.StatusNotFound)
	r := newTestOllamaRepo(server.URL, 3)

	_, err := r.Generate(context.Background(), "be brief", nil, "ping")
	var genErr *repo.GenerateError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error = %v, want *GenerateError", err)
	}
	if genErr.Kind != repo.KindPermanent {
		t.Errorf("failure kind = %s, want %s", genErr.Kind, repo.KindPermanent)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry)", got)
	}
}

func TestGenerateSendsConversationWindow(t *testing.T) {
	server, _ := fakeModelServer(t, 0, http.StatusInternalServerError)
	r := newTestOllamaRepo(server.URL, 1)

	window := []domain.Turn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}
	if _, err := r.Generate(context.Background(), "be brief", window, "ping"); err != nil {
		t.Fatalf("Generate() with window error: %v", err)
	}
}

func TestBuildMessagesOrder(t *testing.T) {
	window := []domain.Turn{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
	}
	messages := buildMessages("system text", window, "q2")

	if len(messages) != 4 {
		t.Fatalf("buildMessages() produced %d messages, want 4", len(messages))
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	for i, role := range wantRoles {
		if messages[i].Role != role {
			t.Errorf("message %d role = %s, want %s", i, messages[i].Role, role)
		}
	}
	if messages[3].Content != "q2" {
		t.Errorf("final message content = %q, want the current prompt", messages[3].Content)
	}
}

func TestBackoffDelayIsBoundedAndJittered(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffDelay(attempt)
		if d < backoffBase/2 {
			t.Errorf("attempt %d delay %v below half the base", attempt, d)
		}
		if d > backoffCap+backoffCap/2 {
			t.Errorf("attempt %d delay %v above cap with jitter", attempt, d)
		}
	}
}
