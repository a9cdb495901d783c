package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/pocketrush/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is checked by middleware.WebSocketCORSCheck
	},
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hub maintains one room of clients per table. It is a game.TableListener:
// every table update is pushed to the table's room.
type Hub struct {
	rooms      map[string]map[*Client]bool // table token -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	// directEvents broadcasts pots and round ends straight from the table
	// loop. It is switched off when a Redis subscriber relays them instead.
	directEvents bool
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms:        make(map[string]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		directEvents: true,
	}
}

// SetDirectEvents toggles local delivery of ball_potted and round_ended.
func (h *Hub) SetDirectEvents(direct bool) {
	h.mu.Lock()
	h.directEvents = direct
	h.mu.Unlock()
}

// Run registers and unregisters clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, exists := h.rooms[client.tableToken]; !exists {
				h.rooms[client.tableToken] = make(map[*Client]bool)
			}
			h.rooms[client.tableToken][client] = true
			size := len(h.rooms[client.tableToken])
			h.mu.Unlock()

			log.Printf("[WS] Client %s joined table %s (room_size=%d, control=%v)", client.id, client.tableToken, size, client.canControl)
			client.sendJSON(stateMessage(client.session.Snapshot()))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, exists := h.rooms[client.tableToken]; exists && room[client] {
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, client.tableToken)
				}
				close(client.send)
				log.Printf("[WS] Client %s left table %s", client.id, client.tableToken)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for token, room := range h.rooms {
		for client := range room {
			close(client.send)
		}
		delete(h.rooms, token)
	}
}

// RoomSize returns the number of clients watching a table.
func (h *Hub) RoomSize(tableToken string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tableToken])
}

// BroadcastToTable sends a message to every client watching a table
func (h *Hub) BroadcastToTable(tableToken string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[tableToken]
	if !exists || len(room) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full
			log.Printf("[WS] Client %s send buffer full on table %s, dropping message", client.id, tableToken)
		}
	}
}

// TableUpdated pushes the latest snapshot to the room.
func (h *Hub) TableUpdated(token string, snap game.Snapshot) {
	h.BroadcastToTable(token, stateMessage(snap))
}

// BallPotted sends the capture cue to the room when events are delivered locally.
func (h *Hub) BallPotted(token string, ballID int) {
	if h.direct() {
		h.BroadcastToTable(token, pottedMessage(ballID))
	}
}

// RoundEnded announces the end of a round when events are delivered locally.
func (h *Hub) RoundEnded(token string, rem game.Remaining) {
	if h.direct() {
		h.BroadcastToTable(token, roundEndedMessage(rem))
	}
}

func (h *Hub) direct() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.directEvents
}

func stateMessage(snap game.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":  "table_state",
		"state": snap,
	}
}

func pottedMessage(ballID int) map[string]interface{} {
	return map[string]interface{}{
		"type":    "ball_potted",
		"ball_id": ballID,
		"band":    game.BandFor(ballID),
	}
}

func roundEndedMessage(rem game.Remaining) map[string]interface{} {
	return map[string]interface{}{
		"type":      "round_ended",
		"remaining": rem,
		"message":   fmt.Sprintf("Round over! %d balls left on the table", rem.Count),
	}
}
