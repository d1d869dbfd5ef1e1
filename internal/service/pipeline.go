package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/usecase"
)

const sendTimeout = 15 * time.Second

// lane serializes processing for one sender. While a prompt is in flight,
// at most one newer prompt waits in the pending slot; an even newer one
// replaces it (depth-1 queue, replace-older).
type lane struct {
	busy    bool
	pending *domain.Prompt
}

// PipelineService wires the admission filter, duplicate suppressor,
// conversation store, LLM client and composer into the per-event state
// machine. Distinct senders proceed concurrently; a single sender is
// strictly serialized.
type PipelineService struct {
	transport repo.TransportRepo
	dedup     repo.DedupRepo
	llm       repo.LLMRepo

	convUC     *usecase.ConversationUsecase
	contextUC  *usecase.ContextBuilderUsecase
	composerUC *usecase.ComposerUsecase

	policy domain.AdmissionPolicy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	lanes map[string]*lane
}

// NewPipelineService creates the pipeline orchestrator
func NewPipelineService(
	transport repo.TransportRepo,
	dedup repo.DedupRepo,
	llm repo.LLMRepo,
	convUC *usecase.ConversationUsecase,
	contextUC *usecase.ContextBuilderUsecase,
	composerUC *usecase.ComposerUsecase,
	policy domain.AdmissionPolicy,
) *PipelineService {
	return &PipelineService{
		transport:  transport,
		dedup:      dedup,
		llm:        llm,
		convUC:     convUC,
		contextUC:  contextUC,
		composerUC: composerUC,
		policy:     policy,
		lanes:      make(map[string]*lane),
	}
}

// Run consumes the inbound event stream until it closes, then reports the
// transport's terminal error (nil on orderly shutdown). Blocks the caller.
func (s *PipelineService) Run(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	log.Println("[Pipeline] started")

	for ev := range s.transport.Receive() {
		s.dispatch(ev)
	}

	s.wg.Wait()
	log.Println("[Pipeline] inbound stream closed")
	return s.transport.Err()
}

// Stop cancels in-flight work and waits for lanes to drain
func (s *PipelineService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Println("[Pipeline] stopped")
}

// dispatch applies the admission gate and hands accepted prompts to the
// sender's lane. Rejections are dropped silently to keep the mesh quiet.
func (s *PipelineService) dispatch(ev domain.InboundEvent) {
	decision := domain.Decide(ev, s.policy)
	if !decision.Accepted {
		log.Printf("[Pipeline] rejected event=%s sender=%s reason=%s", ev.ID, ev.SenderID, decision.Reason)
		return
	}

	log.Printf("[Pipeline] message_in event=%s sender=%s channel=%d dm=%v", ev.ID, ev.SenderID, ev.Channel, ev.IsDirect)
	prompt := domain.Prompt{Event: ev, Text: decision.Prompt}

	s.mu.Lock()
	l, ok := s.lanes[ev.SenderID]
	if !ok {
		l = &lane{}
		s.lanes[ev.SenderID] = l
	}
	if l.busy {
		// Replace any older queued prompt; the dropped one was never
		// started and leaves no side effects.
		if l.pending != nil {
			log.Printf("[Pipeline] superseded event=%s sender=%s by=%s", l.pending.Event.ID, ev.SenderID, ev.ID)
		}
		l.pending = &prompt
		s.mu.Unlock()
		return
	}
	l.busy = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLane(ev.SenderID, prompt)
}

// runLane processes the sender's prompts one at a time until the pending
// slot is empty
func (s *PipelineService) runLane(senderID string, prompt domain.Prompt) {
	defer s.wg.Done()

	for {
		s.process(prompt)

		s.mu.Lock()
		l := s.lanes[senderID]
		if l.pending == nil || s.ctx.Err() != nil {
			delete(s.lanes, senderID)
			s.mu.Unlock()
			return
		}
		prompt = *l.pending
		l.pending = nil
		s.mu.Unlock()
	}
}

// process runs one accepted prompt through dedup, generation, storage and
// reply. Every terminal outcome is contained to this event.
func (s *PipelineService) process(p domain.Prompt) {
	ev := p.Event
	now := time.Now()

	if !s.dedup.ShouldProcess(ev.SenderID, p.Text, now) {
		log.Printf("[Pipeline] suppressed event=%s sender=%s", ev.ID, ev.SenderID)
		return
	}
	s.dedup.Record(ev.SenderID, p.Text, now)

	// Read the window before appending so the current prompt is not
	// duplicated into its own context.
	window, err := s.convUC.Window(s.ctx, ev.SenderID)
	if err != nil {
		log.Printf("[Pipeline] store_read_failure event=%s sender=%s err=%v", ev.ID, ev.SenderID, err)
		return
	}

	if _, err := s.convUC.RecordUser(s.ctx, ev.SenderID, p.Text); err != nil {
		log.Printf("[Pipeline] store_write_failure event=%s sender=%s err=%v", ev.ID, ev.SenderID, err)
		return
	}

	start := time.Now()
	completion, err := s.llm.Generate(s.ctx, s.contextUC.SystemPrompt(), window, s.contextUC.UserMessage(p))
	if err != nil {
		log.Printf("[Pipeline] generate_failure event=%s sender=%s err=%v", ev.ID, ev.SenderID, err)
		s.send(s.composerUC.ComposeFailure(ev))
		return
	}
	log.Printf("[Pipeline] llm_response event=%s sender=%s latency_ms=%d", ev.ID, ev.SenderID, time.Since(start).Milliseconds())

	reply := s.composerUC.FinalReply(completion)
	if reply == "" {
		log.Printf("[Pipeline] empty_reply event=%s sender=%s", ev.ID, ev.SenderID)
		return
	}

	// Both turns are durable before anything is transmitted; a crash here
	// loses at most one reply, never a stored turn.
	if _, err := s.convUC.RecordAssistant(s.ctx, ev.SenderID, reply); err != nil {
		log.Printf("[Pipeline] store_write_failure event=%s sender=%s err=%v", ev.ID, ev.SenderID, err)
		return
	}

	s.send(s.composerUC.Chunks(ev, reply))
}

// send transmits outbound messages in order. A failed send loses the rest
// of the reply for this event; re-sending could duplicate or arrive out of
// context.
func (s *PipelineService) send(messages []domain.OutboundMessage) {
	for i, msg := range messages {
		sendCtx, cancel := context.WithTimeout(s.ctx, sendTimeout)
		err := s.transport.Send(sendCtx, msg)
		cancel()
		if err != nil {
			log.Printf("[Pipeline] send_failure event=%s chunk=%d/%d err=%v", msg.CorrelatesWith, i+1, len(messages), err)
			return
		}
		log.Printf("[Pipeline] message_out event=%s chunk=%d/%d", msg.CorrelatesWith, i+1, len(messages))
	}
}
