package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"akra-backend/internal/metrics"

	"github.com/gorilla/websocket"
)

// Event types pushed to connected admin screens.
const (
	EventEntryCreated      = "entry_created"
	EventEntryUpdated      = "entry_updated"
	EventEntryDeleted      = "entry_deleted"
	EventDeductionsApplied = "deductions_applied"
	EventDeductionsUndone  = "deductions_undone"
	EventEntryTypeReset    = "entry_type_reset"
)

type Event struct {
	Type      string      `json:"type"`
	EntryType string      `json:"entry_type,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	At        time.Time   `json:"at"`
}

// Hub fans events out to connected websocket clients. Gate, when set,
// can veto a publish; the event is dropped, never queued.
//
// gorilla/websocket allows at most one concurrent writer per connection,
// so each client carries its own write lock and Publish serializes
// through it.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex

	// Gate returns false while publishing must stay silent.
	Gate func() bool

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; auth happens
			// via the token checked in the handler.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and registers the client. Reads are
// drained and discarded; this is a push-only feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
}

// Publish sends the event to every connected client. Skipped entirely
// while the gate is closed. Write failures drop the client.
func (h *Hub) Publish(eventType, entryType string, payload interface{}) {
	if h.Gate != nil && !h.Gate() {
		return
	}

	event := Event{
		Type:      eventType,
		EntryType: entryType,
		Payload:   payload,
		At:        time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WS] marshal event failed: %v", err)
		return
	}

	type target struct {
		conn *websocket.Conn
		wmu  *sync.Mutex
	}
	h.mu.Lock()
	targets := make([]target, 0, len(h.clients))
	for c, wmu := range h.clients {
		targets = append(targets, target{conn: c, wmu: wmu})
	}
	h.mu.Unlock()

	for _, t := range targets {
		t.wmu.Lock()
		t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		err := t.conn.WriteMessage(websocket.TextMessage, data)
		t.wmu.Unlock()
		if err != nil {
			h.remove(t.conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
