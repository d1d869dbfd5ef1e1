package usecase

import (
	"strings"
	"testing"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
)

func TestComposerCompose(t *testing.T) {
	uc := NewComposerUsecase(600, 200, false, "")
	ev := domain.InboundEvent{ID: "ev1", SenderID: "!aa11", Channel: 2}

	t.Run("short reply is a single broadcast message", func(t *testing.T) {
		msgs := uc.Compose(ev, "short answer")
		if len(msgs) != 1 {
			t.Fatalf("Compose() produced %d messages, want 1", len(msgs))
		}
		if msgs[0].Direct || msgs[0].Channel != 2 {
			t.Errorf("message target = %+v, want broadcast on channel 2", msgs[0])
		}
		if msgs[0].CorrelatesWith != "ev1" {
			t.Errorf("CorrelatesWith = %q, want ev1", msgs[0].CorrelatesWith)
		}
	})

	t.Run("long reply is chunked under the transport limit", func(t *testing.T) {
		completion := strings.Repeat("word ", 110) // 550 chars
		msgs := uc.Compose(ev, completion)
		if len(msgs) < 2 {
			t.Fatalf("Compose() produced %d messages, want several", len(msgs))
		}
		for i, msg := range msgs {
			if len([]rune(msg.Text)) > 200 {
				t.Errorf("message %d has %d chars, limit 200", i, len([]rune(msg.Text)))
			}
		}
	})

	t.Run("dm reply goes back directly", func(t *testing.T) {
		dm := domain.InboundEvent{ID: "ev2", SenderID: "!bb22", IsDirect: true}
		msgs := uc.Compose(dm, "hi")
		if len(msgs) != 1 || !msgs[0].Direct || msgs[0].SenderID != "!bb22" {
			t.Errorf("Compose() = %+v, want one direct message to !bb22", msgs)
		}
	})

	t.Run("whitespace-only completion yields nothing", func(t *testing.T) {
		if msgs := uc.Compose(ev, "  \n\t "); len(msgs) != 0 {
			t.Errorf("Compose() = %v, want none", msgs)
		}
	})
}

func TestComposerFinalReply(t *testing.T) {
	uc := NewComposerUsecase(20, 200, false, "")

	got := uc.FinalReply("  spread   over\nlines and far too long to fit  ")
	if len([]rune(got)) > 20 {
		t.Errorf("FinalReply() length = %d, want <= 20", len([]rune(got)))
	}
	if strings.Contains(got, "\n") {
		t.Errorf("FinalReply() = %q, want single line", got)
	}
}

func TestComposerFailurePolicy(t *testing.T) {
	ev := domain.InboundEvent{ID: "ev3", SenderID: "!cc33", IsDirect: true}

	t.Run("default is silence", func(t *testing.T) {
		uc := NewComposerUsecase(200, 200, false, "sorry")
		if msgs := uc.ComposeFailure(ev); len(msgs) != 0 {
			t.Errorf("ComposeFailure() = %v, want none", msgs)
		}
	})

	t.Run("apology mode sends one message", func(t *testing.T) {
		uc := NewComposerUsecase(200, 200, true, "sorry")
		msgs := uc.ComposeFailure(ev)
		if len(msgs) != 1 || msgs[0].Text != "sorry" {
			t.Errorf("ComposeFailure() = %+v, want one apology", msgs)
		}
	})
}
