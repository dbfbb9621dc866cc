package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/meeterup/meeterup-be/internal/auth"
	ws "github.com/meeterup/meeterup-be/internal/websocket"
)

// WebSocketHandler upgrades authenticated connections onto the
// notification feed.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The session cookie already gates the upgrade; cross-origin pages
		// cannot read the socket without it.
		return true
	},
}

// Serve handles the WebSocket connection request. The route sits behind
// the JWT middleware, so the user id is always present.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
