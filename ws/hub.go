package ws

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
)

// Hub is the local connection table: connection id to live client. It holds
// only sessions attached to this process; the presence registry remains the
// cluster-wide source of truth for who is online.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{conns: make(map[string]*Client), log: log}
}

func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

// Push resolves a connection id and queues the payload on it. A registry entry
// may outlive the local table for a moment during teardown; pushing to a
// vanished connection is a per-connection failure, not a batch one.
func (h *Hub) Push(ctx context.Context, connID string, payload []byte) error {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return errors.ErrUnknownConnection
	}
	return c.Push(ctx, payload)
}

// Len reports the number of locally attached connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll terminates every attached session, used on server shutdown. Each
// client's teardown hook still runs exactly once.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
	h.log.Info("Closed all websocket sessions", "count", len(clients))
}

var _ contract.ConnectionTable = (*Hub)(nil)
