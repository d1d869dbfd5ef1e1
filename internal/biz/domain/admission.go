package domain

import (
	"strconv"
	"strings"
)

// RejectReason identifies which admission check an event failed.
type RejectReason string

const (
	RejectFromSelf          RejectReason = "from_self"
	RejectNotDirect         RejectReason = "not_direct"
	RejectChannelNotAllowed RejectReason = "channel_not_allowed"
	RejectSenderNotAllowed  RejectReason = "sender_not_allowed"
	RejectNoTrigger         RejectReason = "no_trigger"
	RejectEmptyPrompt       RejectReason = "empty_prompt"
)

// AdmissionPolicy is the static accept/reject configuration.
type AdmissionPolicy struct {
	TriggerPrefix   string
	DMOnly          bool
	AllowedChannels map[int]struct{}    // empty = all channels allowed
	AllowedSenders  map[string]struct{} // empty = all senders allowed
}

// Decision is the outcome of applying an AdmissionPolicy to an event.
type Decision struct {
	Accepted bool
	Prompt   string
	Reason   RejectReason
}

func accept(prompt string) Decision {
	return Decision{Accepted: true, Prompt: prompt}
}

func reject(reason RejectReason) Decision {
	return Decision{Reason: reason}
}

// Decide applies the admission policy to an inbound event. Pure function;
// first failing check wins. The channel allow-list applies to broadcast
// messages only: a direct message is deliverable regardless of which
// channel slot carried it.
func Decide(ev InboundEvent, p AdmissionPolicy) Decision {
	if ev.FromSelf {
		return reject(RejectFromSelf)
	}

	if p.DMOnly && !ev.IsDirect {
		return reject(RejectNotDirect)
	}

	if len(p.AllowedChannels) > 0 && !ev.IsDirect {
		if _, ok := p.AllowedChannels[ev.Channel]; !ok {
			return reject(RejectChannelNotAllowed)
		}
	}

	if len(p.AllowedSenders) > 0 && !senderAllowed(ev, p.AllowedSenders) {
		return reject(RejectSenderNotAllowed)
	}

	if p.TriggerPrefix != "" && !strings.HasPrefix(ev.Text, p.TriggerPrefix) {
		return reject(RejectNoTrigger)
	}

	prompt := strings.TrimSpace(strings.TrimPrefix(ev.Text, p.TriggerPrefix))
	if prompt == "" {
		return reject(RejectEmptyPrompt)
	}

	return accept(prompt)
}

// senderAllowed matches the allow-list against the node ID and, when
// known, its numeric form. Operators configure whichever they have handy.
func senderAllowed(ev InboundEvent, allowed map[string]struct{}) bool {
	if _, ok := allowed[ev.SenderID]; ok {
		return true
	}
	if ev.SenderNum != 0 {
		if _, ok := allowed[strconv.FormatInt(ev.SenderNum, 10)]; ok {
			return true
		}
	}
	return false
}
