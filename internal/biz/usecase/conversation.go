package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
)

// ConversationUsecase owns per-sender history policy: how much context a
// generation sees and how much the store retains.
type ConversationUsecase struct {
	turnRepo  repo.TurnRepo
	memory    int // turn pairs of model context
	retention int // stored turns kept per sender
}

// NewConversationUsecase creates a new conversation usecase
func NewConversationUsecase(turnRepo repo.TurnRepo, memoryTurns, retentionTurns int) *ConversationUsecase {
	return &ConversationUsecase{
		turnRepo:  turnRepo,
		memory:    memoryTurns,
		retention: retentionTurns,
	}
}

// Window returns the sender's recent history for model context,
// oldest-first. One memory turn is a user/assistant pair, so the window
// holds up to memory*2 stored turns.
func (uc *ConversationUsecase) Window(ctx context.Context, senderID string) ([]domain.Turn, error) {
	return uc.turnRepo.Recent(ctx, senderID, uc.memory*2)
}

// RecordUser durably appends the accepted prompt as a user turn
func (uc *ConversationUsecase) RecordUser(ctx context.Context, senderID, prompt string) (int64, error) {
	id, err := uc.turnRepo.Append(ctx, senderID, domain.RoleUser, prompt)
	if err != nil {
		return 0, fmt.Errorf("record user turn: %w", err)
	}
	uc.pruneAfterAppend(ctx, senderID)
	return id, nil
}

// RecordAssistant durably appends the produced reply as an assistant turn
func (uc *ConversationUsecase) RecordAssistant(ctx context.Context, senderID, reply string) (int64, error) {
	id, err := uc.turnRepo.Append(ctx, senderID, domain.RoleAssistant, reply)
	if err != nil {
		return 0, fmt.Errorf("record assistant turn: %w", err)
	}
	uc.pruneAfterAppend(ctx, senderID)
	return id, nil
}

// pruneAfterAppend bounds storage growth after every write. A prune
// failure only delays reclamation, so it is logged and not propagated.
func (uc *ConversationUsecase) pruneAfterAppend(ctx context.Context, senderID string) {
	if uc.retention <= 0 {
		return
	}
	if _, err := uc.turnRepo.Prune(ctx, senderID, uc.retention); err != nil {
		log.Printf("[Conversation] prune failed for %s: %v", senderID, err)
	}
}

// PruneAll enforces retention across every stored sender; used by the
// maintenance sweep.
func (uc *ConversationUsecase) PruneAll(ctx context.Context) (int64, error) {
	if uc.retention <= 0 {
		return 0, nil
	}
	senders, err := uc.turnRepo.Senders(ctx)
	if err != nil {
		return 0, fmt.Errorf("list senders: %w", err)
	}

	var total int64
	for _, sender := range senders {
		removed, err := uc.turnRepo.Prune(ctx, sender, uc.retention)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", sender, err)
		}
		total += removed
	}
	return total, nil
}
