package server

import (
	"chat-relay/services"
	"chat-relay/ws"
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades HTTP requests into tracked chat sessions. The lifecycle
// is authenticate, upgrade, register, pump, deregister. A failed handshake
// terminates before the registry ever hears about the connection.
type WSHandler struct {
	connections services.IConnectionService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
	sendBuffer  int
	log         *slog.Logger
}

func NewWSHandler(connections services.IConnectionService, hub *ws.Hub, sendBuffer int, log *slog.Logger) *WSHandler {
	return &WSHandler{
		connections: connections,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: sendBuffer,
		log:        log,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on WebSocket dials, so the token may also
	// arrive as a query parameter.
	credential := r.Header.Get("Authorization")
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}

	userID, err := h.connections.Admit(r.Context(), credential)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Upgrade failed", "user", userID, "error", err)
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), userID, h.sendBuffer, h.log)
	handle := client.Handle()

	h.hub.Attach(client)
	h.connections.Attach(r.Context(), handle)

	// The hook runs once no matter how many pumps observe the close. Detach
	// uses a background context: the HTTP request context is already dead by
	// the time the socket closes.
	client.OnClose(func() {
		h.hub.Detach(client.ID)
		h.connections.Detach(context.Background(), handle)
	})

	go client.WritePump()
	client.ReadPump()
}
