package data

import (
	"sync"
	"time"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
)

type dedupKey struct {
	senderID string
	text     string
}

// dedupRepo implements repo.DedupRepo with an in-process expiry map.
// The table is rebuilt empty on restart; worst case is one duplicate
// reply per window right after a restart.
type dedupRepo struct {
	window  time.Duration
	mu      sync.Mutex
	entries map[dedupKey]time.Time // key -> expiry
}

// NewDedupRepo creates a duplicate suppressor with the given window.
// A zero window disables suppression.
func NewDedupRepo(window time.Duration) repo.DedupRepo {
	return &dedupRepo{
		window:  window,
		entries: make(map[dedupKey]time.Time),
	}
}

// ShouldProcess reports whether no unexpired entry exists for the prompt.
// An expired entry found here is purged on the spot. The expiry of a live
// entry is left untouched: the first occurrence sets the window, duplicates
// do not slide it.
func (r *dedupRepo) ShouldProcess(senderID, promptText string, now time.Time) bool {
	if r.window <= 0 {
		return true
	}

	key := dedupKey{senderID: senderID, text: domain.NormalizeForDedup(promptText)}

	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.entries[key]
	if !ok {
		return true
	}
	if now.After(expiry) {
		delete(r.entries, key)
		return true
	}
	return false
}

// Record inserts or overwrites the key with expiry now+window
func (r *dedupRepo) Record(senderID, promptText string, now time.Time) {
	if r.window <= 0 {
		return
	}

	key := dedupKey{senderID: senderID, text: domain.NormalizeForDedup(promptText)}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = now.Add(r.window)
}

// Sweep drops every expired entry and reports how many were removed
func (r *dedupRepo) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, expiry := range r.entries {
		if now.After(expiry) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}
