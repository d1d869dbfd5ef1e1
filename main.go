package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/usecase"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/conf"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/data"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("[Bridge] startup mesh=%s ollama=%s model=%s", cfg.Mesh.Host, cfg.Ollama.Host, cfg.Ollama.Model)

	db, err := data.OpenDB(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	turnRepo := data.NewTurnRepo(db)
	defer turnRepo.Close()

	dedupRepo := data.NewDedupRepo(cfg.DedupWindow)
	llmRepo := data.NewOllamaRepo(data.OllamaConfig{
		Host:           cfg.Ollama.Host,
		Model:          cfg.Ollama.Model,
		MaxAttempts:    cfg.Ollama.MaxAttempts,
		AttemptTimeout: cfg.Ollama.AttemptTimeout,
	})
	transport := data.NewMeshRepo(cfg.Mesh.Host)
	defer transport.Close()

	convUC := usecase.NewConversationUsecase(turnRepo, cfg.Conversation.MemoryTurns, cfg.Conversation.RetentionTurns)
	contextUC := usecase.NewContextBuilderUsecase(cfg.Prompts, cfg.Reply.MaxChars)
	composerUC := usecase.NewComposerUsecase(cfg.Reply.MaxChars, cfg.Reply.TransportLimit, cfg.Reply.ReplyOnFailure, cfg.Prompts.Reply.Apology)

	policy := domain.AdmissionPolicy{
		TriggerPrefix:   cfg.Admission.TriggerPrefix,
		DMOnly:          cfg.Admission.DMOnly,
		AllowedChannels: toChannelSet(cfg.Admission.AllowedChannels),
		AllowedSenders:  toSenderSet(cfg.Admission.AllowedSenders),
	}

	pipeline := service.NewPipelineService(transport, dedupRepo, llmRepo, convUC, contextUC, composerUC, policy)

	maintenance := service.NewMaintenanceService(dedupRepo, convUC)
	if err := maintenance.Start(); err != nil {
		log.Fatalf("Failed to start maintenance: %v", err)
	}
	defer maintenance.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[Bridge] shutting down")
		transport.Close()
		pipeline.Stop()
		cancel()
	}()

	if err := pipeline.Run(ctx); err != nil {
		if errors.Is(err, repo.ErrAdapterUnavailable) {
			log.Fatalf("Mesh transport unavailable, giving up: %v", err)
		}
		log.Fatalf("Pipeline error: %v", err)
	}
}

func toChannelSet(channels []int) map[int]struct{} {
	set := make(map[int]struct{}, len(channels))
	for _, ch := range channels {
		set[ch] = struct{}{}
	}
	return set
}

func toSenderSet(senders []string) map[string]struct{} {
	set := make(map[string]struct{}, len(senders))
	for _, s := range senders {
		set[s] = struct{}{}
	}
	return set
}
