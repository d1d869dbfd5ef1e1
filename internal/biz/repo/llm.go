package repo

import (
	"context"
	"fmt"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
)

// FailureKind classifies a terminal generation failure.
type FailureKind string

const (
	// KindTransientExhausted means every attempt failed with a retryable
	// error (connection refused, timeout, 429/5xx).
	KindTransientExhausted FailureKind = "transient_exhausted"

	// KindPermanent means the request itself is bad (malformed request,
	// model not found); retrying would not help.
	KindPermanent FailureKind = "permanent"
)

// GenerateError is the terminal error returned by LLMRepo.Generate after
// its internal retry policy is done.
type GenerateError struct {
	Kind     FailureKind
	Attempts int
	Err      error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("llm generate failed (%s after %d attempts): %v", e.Kind, e.Attempts, e.Err)
}

func (e *GenerateError) Unwrap() error { return e.Err }

// LLMRepo invokes the local model. Implementations own per-attempt
// timeouts, retry and backoff; callers see only the final outcome.
type LLMRepo interface {
	// Generate produces a completion for the prompt given the system
	// context and the sender's conversation window. On failure the error
	// is a *GenerateError.
	Generate(ctx context.Context, system string, window []domain.Turn, prompt string) (string, error)
}
