package handlers

import (
	"net/http"

	"qr-hunt-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      Live game monitor
// @Description  Streams player_registered, checkpoint_answered, player_completed and code_redeemed events
// @Tags         websocket
// @Param        id    path  string true "Game ID"
// @Param        token query string true "Admin JWT"
// @Router       /ws/admin/games/{id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	gameID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.hub.AddConnection(gameID, conn)
	defer h.hub.RemoveConnection(gameID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
