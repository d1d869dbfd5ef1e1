package domain

import "time"

// InboundEvent represents one text message received from the mesh.
// Events are immutable once constructed by the transport adapter.
type InboundEvent struct {
	ID              string // adapter-assigned correlation ID
	SenderID        string // stable node identifier, e.g. "!a1b2c3d4"
	SenderNum       int64  // numeric node number, 0 if unknown
	SenderShortName string
	SenderLongName  string
	Channel         int
	IsDirect        bool // addressed to this node rather than broadcast
	FromSelf        bool // transmitted by this node's own radio
	Text            string
	ReceivedAt      time.Time
}

// SenderName returns the best available display name for the sender
func (e *InboundEvent) SenderName() string {
	if e.SenderShortName != "" {
		return e.SenderShortName
	}
	if e.SenderLongName != "" {
		return e.SenderLongName
	}
	return "Unknown"
}

// Prompt is the model input extracted from an accepted event.
// A Prompt exists only for events the admission policy accepted.
type Prompt struct {
	Event InboundEvent
	Text  string // trigger prefix stripped, whitespace trimmed
}

// OutboundMessage is one transport-sized reply unit.
type OutboundMessage struct {
	SenderID       string // direct destination node ID, empty for broadcast
	Channel        int    // broadcast channel, ignored for direct sends
	Direct         bool
	Text           string
	CorrelatesWith string // originating InboundEvent ID, for logging only
}

// ReplyTarget builds the outbound addressing for a reply to the given event.
// Direct messages are answered directly; broadcasts are answered on the
// channel they arrived on.
func ReplyTarget(ev InboundEvent) OutboundMessage {
	if ev.IsDirect {
		return OutboundMessage{SenderID: ev.SenderID, Direct: true, CorrelatesWith: ev.ID}
	}
	return OutboundMessage{Channel: ev.Channel, CorrelatesWith: ev.ID}
}
