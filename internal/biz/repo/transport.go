package repo

import (
	"context"
	"errors"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
)

// ErrAdapterUnavailable is recorded by a transport adapter once its
// reconnect policy is exhausted. It is distinct from a transient Send
// failure: the process should exit non-zero when it sees this.
var ErrAdapterUnavailable = errors.New("mesh transport permanently unavailable")

// TransportRepo is the boundary to the mesh radio. The adapter owns link
// setup, reconnect and backoff; the pipeline treats Send failures as
// transient and per-event.
type TransportRepo interface {
	// Receive returns the inbound event stream. The channel is closed
	// when the adapter gives up or is closed; consult Err afterwards.
	Receive() <-chan domain.InboundEvent

	// Send transmits one outbound message. A failure loses this reply
	// only; the adapter does not re-send.
	Send(ctx context.Context, msg domain.OutboundMessage) error

	// Err reports the terminal adapter error after Receive's channel is
	// closed, or nil for an orderly Close.
	Err() error

	Close() error
}
