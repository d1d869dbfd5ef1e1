package usecase

import (
	"strconv"
	"strings"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/conf"
)

// ContextBuilderUsecase assembles the model-facing text for one generation:
// the system prompt and the user message carrying sender/channel context.
type ContextBuilderUsecase struct {
	prompts  *conf.PromptsConfig
	maxChars int
}

// NewContextBuilderUsecase creates a new context builder
func NewContextBuilderUsecase(prompts *conf.PromptsConfig, maxReplyChars int) *ContextBuilderUsecase {
	return &ContextBuilderUsecase{
		prompts:  prompts,
		maxChars: maxReplyChars,
	}
}

// SystemPrompt returns the persona plus the reply-length instruction
func (uc *ContextBuilderUsecase) SystemPrompt() string {
	return uc.prompts.Persona.SystemPrompt + "\n" + uc.prompts.FormatLengthHint(uc.maxChars)
}

// UserMessage wraps the prompt with a header identifying who is asking and
// where, so the model can address the sender naturally.
func (uc *ContextBuilderUsecase) UserMessage(p domain.Prompt) string {
	header := uc.prompts.FormatHeader(p.Event.SenderName(), p.Event.SenderID, channelLabel(p.Event))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\nMessage:\n")
	b.WriteString(p.Text)
	return b.String()
}

func channelLabel(ev domain.InboundEvent) string {
	if ev.IsDirect {
		return "DM"
	}
	return strconv.Itoa(ev.Channel)
}
