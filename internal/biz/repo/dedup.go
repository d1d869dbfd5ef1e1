package repo

import "time"

// DedupRepo is the time-windowed guard against repeated identical prompts.
// Keys are (sender, normalized prompt text); the first occurrence sets the
// expiry and later duplicates do not slide it.
type DedupRepo interface {
	// ShouldProcess reports whether the prompt should be processed, i.e.
	// no unexpired entry exists for this sender and text. A zero window
	// disables suppression entirely.
	ShouldProcess(senderID, promptText string, now time.Time) bool

	// Record inserts or overwrites the key with expiry now+window. Called
	// only after the orchestrator accepts the prompt.
	Record(senderID, promptText string, now time.Time)

	// Sweep drops every expired entry and reports how many were removed.
	Sweep(now time.Time) int
}
