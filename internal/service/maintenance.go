package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/usecase"
)

// MaintenanceService runs the background sweeps: dropping expired dedup
// entries and enforcing retention across all stored senders. Lookup-time
// purging already keeps the hot path correct; the sweeps only bound
// memory and disk growth for senders that went quiet.
type MaintenanceService struct {
	dedup  repo.DedupRepo
	convUC *usecase.ConversationUsecase
	cron   *cron.Cron
}

// NewMaintenanceService creates the maintenance scheduler
func NewMaintenanceService(dedup repo.DedupRepo, convUC *usecase.ConversationUsecase) *MaintenanceService {
	return &MaintenanceService{
		dedup:  dedup,
		convUC: convUC,
		cron:   cron.New(),
	}
}

// Start registers the sweep jobs and starts the scheduler
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc("@every 5m", s.sweepDedup); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 6h", s.pruneStore); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("[Maintenance] started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Maintenance] stopped")
}

func (s *MaintenanceService) sweepDedup() {
	if removed := s.dedup.Sweep(time.Now()); removed > 0 {
		log.Printf("[Maintenance] dedup_sweep removed=%d", removed)
	}
}

func (s *MaintenanceService) pruneStore() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.convUC.PruneAll(ctx)
	if err != nil {
		log.Printf("[Maintenance] prune failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Maintenance] retention_prune removed=%d", removed)
	}
}
