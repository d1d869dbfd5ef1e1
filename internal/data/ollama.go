package data

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
)

const (
	backoffBase = 1 * time.Second
	backoffCap  = 10 * time.Second
)

// OllamaConfig configures the local model client
type OllamaConfig struct {
	Host           string // e.g. http://localhost:11434
	Model          string
	MaxAttempts    int
	AttemptTimeout time.Duration
}

// ollamaRepo implements repo.LLMRepo against Ollama's OpenAI-compatible
// chat completion endpoint
type ollamaRepo struct {
	client *openai.Client
	cfg    OllamaConfig
}

// NewOllamaRepo creates an LLM repository talking to a local Ollama server
func NewOllamaRepo(cfg OllamaConfig) repo.LLMRepo {
	// Ollama ignores the API key but the client requires one
	config := openai.DefaultConfig("ollama")
	config.BaseURL = strings.TrimRight(cfg.Host, "/") + "/v1"

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}

	return &ollamaRepo{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
	}
}

// Generate runs the bounded retry loop: each attempt gets its own timeout,
// only transient failures are retried, and attempts are separated by
// jittered exponential backoff so a struggling local model is not hammered.
func (r *ollamaRepo) Generate(ctx context.Context, system string, window []domain.Turn, prompt string) (string, error) {
	messages := buildMessages(system, window, prompt)

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		text, err := r.attempt(ctx, messages)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isTransient(err) {
			return "", &repo.GenerateError{Kind: repo.KindPermanent, Attempts: attempt, Err: err}
		}

		log.Printf("[Ollama] attempt=%d/%d transient error: %v", attempt, r.cfg.MaxAttempts, err)

		if attempt < r.cfg.MaxAttempts {
			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return "", &repo.GenerateError{Kind: repo.KindTransientExhausted, Attempts: attempt, Err: ctx.Err()}
			}
		}
	}

	return "", &repo.GenerateError{Kind: repo.KindTransientExhausted, Attempts: r.cfg.MaxAttempts, Err: lastErr}
}

func (r *ollamaRepo) attempt(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
		Model:    r.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(system string, window []domain.Turn, prompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(window)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})

	for _, turn := range window {
		role := openai.ChatMessageRoleUser
		if turn.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	return messages
}

// isTransient reports whether the attempt error is worth retrying:
// connection problems, timeouts, 429 and 5xx-equivalent server errors.
// Malformed requests and unknown models fail immediately.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}

	// Everything else at this point is transport-level: refused
	// connections, attempt timeouts, resets.
	return true
}

// backoffDelay returns the wait before the next attempt: exponential from
// backoffBase, capped, with ±50% jitter.
func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << (attempt - 1)
	if delay > backoffCap {
		delay = backoffCap
	}
	jitter := 0.5 + rand.Float64() // 0.5x .. 1.5x
	return time.Duration(float64(delay) * jitter)
}
