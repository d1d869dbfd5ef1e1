package repo

import (
	"context"
	"errors"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
)

// ErrStoreWrite marks a durable-write failure. It is fatal to the event
// being processed but never to the process.
var ErrStoreWrite = errors.New("conversation store write failed")

// TurnRepo is the durable per-sender conversation history.
type TurnRepo interface {
	// Append stores one turn and returns its sequence ID. A failed append
	// wraps ErrStoreWrite; no partial turn is persisted.
	Append(ctx context.Context, senderID string, role domain.Role, content string) (int64, error)

	// Recent returns up to limit turns for the sender, most-recent-last.
	Recent(ctx context.Context, senderID string, limit int) ([]domain.Turn, error)

	// Prune deletes the sender's turns beyond the most recent keep,
	// oldest-first, and reports how many were removed.
	Prune(ctx context.Context, senderID string, keep int) (int64, error)

	// Senders lists every sender with stored history.
	Senders(ctx context.Context) ([]string, error)

	Close() error
}
