package data

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
)

const (
	reconnectBase = 2 * time.Second
	reconnectCap  = 30 * time.Second

	// Consecutive failed dials before the adapter declares the daemon gone
	maxReconnects = 10
)

// rxFrame is one inbound line from the mesh daemon socket
type rxFrame struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	From      string `json:"from"`
	FromNum   int64  `json:"from_num,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	LongName  string `json:"long_name,omitempty"`
	Channel   int    `json:"channel"`
	DM        bool   `json:"dm"`
	Self      bool   `json:"self,omitempty"`
	Text      string `json:"text"`
	RxTime    int64  `json:"rx_time,omitempty"`
}

// txFrame is one outbound line to the mesh daemon socket
type txFrame struct {
	Type    string `json:"type"`
	To      string `json:"to,omitempty"`
	Channel int    `json:"channel"`
	DM      bool   `json:"dm"`
	Text    string `json:"text"`
}

// meshRepo implements repo.TransportRepo over a newline-delimited JSON
// socket exposed by the local mesh daemon. The adapter owns dialing,
// reconnect and backoff; the pipeline only sees events and send results.
type meshRepo struct {
	host   string
	events chan domain.InboundEvent

	mu     sync.Mutex
	conn   net.Conn
	err    error
	closed bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewMeshRepo creates a transport adapter connected to the mesh daemon at
// host (host:port) and starts its receive loop.
func NewMeshRepo(host string) repo.TransportRepo {
	r := &meshRepo{
		host:   host,
		events: make(chan domain.InboundEvent, 16),
		stopCh: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.receiveLoop()
	return r
}

// Receive returns the inbound event stream
func (r *meshRepo) Receive() <-chan domain.InboundEvent {
	return r.events
}

// Send transmits one outbound message. Failures are transient: the reply
// is lost for this event and never re-sent.
func (r *meshRepo) Send(ctx context.Context, msg domain.OutboundMessage) error {
	frame := txFrame{
		Type:    "tx",
		To:      msg.SenderID,
		Channel: msg.Channel,
		DM:      msg.Direct,
		Text:    msg.Text,
	}
	line, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode tx frame: %w", err)
	}

	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("mesh link down, dropping reply to %s", msg.SenderID)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write tx frame: %w", err)
	}
	return nil
}

// Err reports the terminal adapter error once the receive channel closes
func (r *meshRepo) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close shuts the adapter down without marking it failed
func (r *meshRepo) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.stopCh)
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	r.wg.Wait()
	return nil
}

// receiveLoop dials, reads frames and reconnects with exponential backoff.
// After maxReconnects consecutive dial failures the adapter records
// ErrAdapterUnavailable and closes the event stream.
func (r *meshRepo) receiveLoop() {
	defer r.wg.Done()
	defer close(r.events)

	backoff := reconnectBase
	failures := 0

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", r.host, 10*time.Second)
		if err != nil {
			failures++
			log.Printf("[Mesh] connect failed (%d/%d): %v", failures, maxReconnects, err)
			if failures >= maxReconnects {
				r.mu.Lock()
				r.err = repo.ErrAdapterUnavailable
				r.mu.Unlock()
				return
			}
			select {
			case <-time.After(backoff):
			case <-r.stopCh:
				return
			}
			backoff = min(backoff*2, reconnectCap)
			continue
		}

		log.Printf("[Mesh] listening on %s", r.host)
		failures = 0
		backoff = reconnectBase

		r.mu.Lock()
		r.conn = conn
		r.mu.Unlock()

		r.readFrames(conn)

		r.mu.Lock()
		r.conn = nil
		closed := r.closed
		r.mu.Unlock()
		conn.Close()

		if closed {
			return
		}
		log.Printf("[Mesh] link lost, reconnecting")
	}
}

// readFrames consumes one connection until it drops
func (r *meshRepo) readFrames(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame rxFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			log.Printf("[Mesh] bad frame, skipping: %v", err)
			continue
		}
		if frame.Type != "rx" || frame.Text == "" {
			continue
		}

		ev := frameToEvent(frame)
		select {
		case r.events <- ev:
		case <-r.stopCh:
			return
		}
	}
}

func frameToEvent(frame rxFrame) domain.InboundEvent {
	id := frame.ID
	if id == "" {
		id = uuid.NewString()
	}
	receivedAt := time.Now()
	if frame.RxTime > 0 {
		receivedAt = time.Unix(frame.RxTime, 0)
	}
	return domain.InboundEvent{
		ID:              id,
		SenderID:        frame.From,
		SenderNum:       frame.FromNum,
		SenderShortName: frame.ShortName,
		SenderLongName:  frame.LongName,
		Channel:         frame.Channel,
		IsDirect:        frame.DM,
		FromSelf:        frame.Self,
		Text:            frame.Text,
		ReceivedAt:      receivedAt,
	}
}
