package progress

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type broadcastMsg struct {
	conversationID string
	event          *Event
}

// Hub fans out progress events to websocket clients subscribed to a
// conversation ID, and doubles as an observer.TurnObserver so the
// orchestrator can wire it in without a separate adapter type.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg

	byConversation map[string]map[*Client]bool

	log zerolog.Logger
	mu  sync.RWMutex
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *broadcastMsg, 256),
		byConversation: make(map[string]map[*Client]bool),
		log:            log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case msg := <-h.broadcast:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if h.byConversation[c.conversationID] == nil {
		h.byConversation[c.conversationID] = make(map[*Client]bool)
	}
	h.byConversation[c.conversationID][c] = true
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	delete(h.byConversation[c.conversationID], c)
	close(c.send)
}

func (h *Hub) dispatch(msg *broadcastMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byConversation[msg.conversationID] {
		select {
		case c.send <- msg.event:
		default:
			h.log.Warn().Str("conversation_id", msg.conversationID).Msg("progress: client send buffer full, dropping")
		}
	}
}

func (h *Hub) emit(ev *Event) {
	ev.Timestamp = time.Now()
	select {
	case h.broadcast <- &broadcastMsg{conversationID: ev.ConversationID, event: ev}:
	default:
		h.log.Warn().Msg("progress: broadcast channel full, dropping event")
	}
}

// The four methods below implement observer.TurnObserver.

func (h *Hub) OnExtractionDone(conversationID, intent string, duration time.Duration) {
	h.emit(&Event{Type: EventExtractionDone, ConversationID: conversationID, Intent: intent, DurationMs: duration.Milliseconds()})
}

func (h *Hub) OnPlanBuilt(conversationID string, blockCount int, duration time.Duration) {
	h.emit(&Event{Type: EventPlanBuilt, ConversationID: conversationID, BlockCount: blockCount, DurationMs: duration.Milliseconds()})
}

func (h *Hub) OnBlockExecuted(conversationID, blockID string, rowCount int, err error) {
	ev := &Event{Type: EventBlockExecuted, ConversationID: conversationID, BlockID: blockID, RowCount: rowCount}
	if err != nil {
		ev.Error = err.Error()
	}
	h.emit(ev)
}

func (h *Hub) OnResponseReady(conversationID, status string, duration time.Duration) {
	h.emit(&Event{Type: EventResponseReady, ConversationID: conversationID, Status: status, DurationMs: duration.Milliseconds()})
}
