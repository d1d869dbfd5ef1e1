package usecase

import (
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
)

// ComposerUsecase turns a completion (or a terminal failure) into zero or
// more transport-sized outbound messages.
type ComposerUsecase struct {
	maxChars       int // completion length cap
	transportLimit int // single mesh message payload limit
	replyOnFailure bool
	apology        string
}

// NewComposerUsecase creates a new reply composer. When replyOnFailure is
// false (the default policy), terminal failures produce silence rather
// than error chatter on the mesh.
func NewComposerUsecase(maxChars, transportLimit int, replyOnFailure bool, apology string) *ComposerUsecase {
	return &ComposerUsecase{
		maxChars:       maxChars,
		transportLimit: transportLimit,
		replyOnFailure: replyOnFailure,
		apology:        apology,
	}
}

// FinalReply normalizes the raw completion and caps it at the configured
// maximum. This is the text that gets stored as the assistant turn. An
// empty result means the model produced nothing usable.
func (uc *ComposerUsecase) FinalReply(completion string) string {
	reply := domain.NormalizeReply(completion)
	return domain.EnforceMaxLength(reply, uc.maxChars)
}

// Chunks splits a final reply into transport-sized messages addressed at
// the event's reply target, in send order.
func (uc *ComposerUsecase) Chunks(ev domain.InboundEvent, reply string) []domain.OutboundMessage {
	chunks := domain.ChunkText(reply, uc.transportLimit)
	messages := make([]domain.OutboundMessage, 0, len(chunks))
	for _, chunk := range chunks {
		msg := domain.ReplyTarget(ev)
		msg.Text = chunk
		messages = append(messages, msg)
	}
	return messages
}

// Compose is FinalReply followed by Chunks. An empty normalized completion
// yields no messages.
func (uc *ComposerUsecase) Compose(ev domain.InboundEvent, completion string) []domain.OutboundMessage {
	reply := uc.FinalReply(completion)
	if reply == "" {
		return nil
	}
	return uc.Chunks(ev, reply)
}

// ComposeFailure applies the failure policy: silence by default, or a
// single short apology when configured.
func (uc *ComposerUsecase) ComposeFailure(ev domain.InboundEvent) []domain.OutboundMessage {
	if !uc.replyOnFailure || uc.apology == "" {
		return nil
	}
	msg := domain.ReplyTarget(ev)
	msg.Text = domain.EnforceMaxLength(uc.apology, uc.transportLimit)
	return []domain.OutboundMessage{msg}
}
