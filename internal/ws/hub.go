package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	EventPlayerRegistered   = "player_registered"
	EventCheckpointAnswered = "checkpoint_answered"
	EventPlayerCompleted    = "player_completed"
	EventCodeRedeemed       = "code_redeemed"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	writeWait = 10 * time.Second
	// sendBuffer is how many events a console may fall behind before it is dropped.
	sendBuffer = 64
)

// client owns one console connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans game events out to the admin consoles watching that game.
// Broadcast never blocks on a socket.
type Hub struct {
	mu    sync.Mutex
	games map[uuid.UUID]map[*websocket.Conn]*client
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		games: make(map[uuid.UUID]map[*websocket.Conn]*client),
		log:   log,
	}
}

func (h *Hub) AddConnection(gameID uuid.UUID, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*websocket.Conn]*client)
	}
	h.games[gameID][conn] = c
	total := len(h.games[gameID])
	h.mu.Unlock()

	h.log.Debug("ws client connected", "game", gameID, "total", total)
	go h.writePump(gameID, c)
}

func (h *Hub) RemoveConnection(gameID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	removed := h.detach(gameID, conn)
	h.mu.Unlock()

	if removed {
		h.log.Debug("ws client disconnected", "game", gameID)
	}
	conn.Close()
}

// detach unregisters conn and closes its send channel. Caller holds h.mu.
func (h *Hub) detach(gameID uuid.UUID, conn *websocket.Conn) bool {
	conns, ok := h.games[gameID]
	if !ok {
		return false
	}
	c, ok := conns[conn]
	if !ok {
		return false
	}
	delete(conns, conn)
	close(c.send)
	if len(conns) == 0 {
		delete(h.games, gameID)
	}
	return true
}

// Connections reports how many consoles watch the game.
func (h *Hub) Connections(gameID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.games[gameID])
}

// Broadcast queues the event for every watcher of the game. A console whose
// queue is full is disconnected.
func (h *Hub) Broadcast(gameID uuid.UUID, eventType string, data interface{}) {
	payload, err := json.Marshal(WSMessage{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("ws marshal failed", "error", err)
		return
	}

	var dropped []*websocket.Conn
	h.mu.Lock()
	for conn, c := range h.games[gameID] {
		select {
		case c.send <- payload:
		default:
			dropped = append(dropped, conn)
		}
	}
	for _, conn := range dropped {
		h.detach(gameID, conn)
	}
	h.mu.Unlock()

	for _, conn := range dropped {
		h.log.Warn("ws client too slow, disconnecting", "game", gameID)
		conn.Close()
	}
}

func (h *Hub) writePump(gameID uuid.UUID, c *client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("ws write failed", "game", gameID, "error", err)
			h.RemoveConnection(gameID, c.conn)
			return
		}
	}
}
