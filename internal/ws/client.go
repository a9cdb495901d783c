package ws

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pocketrush/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	commandTimeout = 2 * time.Second
)

// StrikeData is the payload of a strike message
type StrikeData struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

// Client represents a connected WebSocket client
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	id         string
	tableToken string
	session    *game.TableSession
	canControl bool
	send       chan []byte
}

// ServeTable upgrades the request and joins the table's room. Clients without
// control may watch and request state but cannot strike or reset.
func (h *Hub) ServeTable(c *gin.Context, session *game.TableSession, canControl bool) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		id:         c.ClientIP() + "/" + time.Now().Format("150405.000"),
		tableToken: session.Token,
		session:    session,
		canControl: canControl,
		send:       make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for client %s: %v", c.id, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// handleMessage processes an incoming client message
func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "strike":
		if !c.canControl {
			c.sendError("Control token required")
			return
		}
		var data StrikeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid strike data")
			return
		}
		if math.IsNaN(data.Angle) || math.IsInf(data.Angle, 0) || math.IsNaN(data.Power) {
			c.sendError("Invalid strike data")
			return
		}
		c.handleStrike(data)

	case "reset":
		if !c.canControl {
			c.sendError("Control token required")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := c.session.Reset(ctx); err != nil {
			c.sendError(err.Error())
		}

	case "get_state":
		c.sendJSON(stateMessage(c.session.Snapshot()))

	default:
		c.sendError("Unknown message type")
	}
}

func (c *Client) handleStrike(data StrikeData) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	accepted, err := c.session.Strike(ctx, data.Angle, data.Power)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if !accepted {
		c.sendError("Strike rejected: reset the table to break again")
	}
}

// sendJSON queues a message for this client only, if it is still registered.
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.rooms[c.tableToken][c] {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Client %s send buffer full, dropping reply", c.id)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
