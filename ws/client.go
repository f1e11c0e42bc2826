// Package ws manages individual WebSocket sessions and the local connection
// table, handling read/write pumps and lifecycle control for each connection.
package ws

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be below pongWait
	maxMessageSize = 4 * 1024
)

// Client is one live WebSocket session of a user. The transport layer owns the
// socket; everything else addresses the client through its connection id.
type Client struct {
	ID          string
	Owner       domain.UserID
	ConnectedAt time.Time

	conn      *websocket.Conn
	send      chan []byte
	log       *slog.Logger
	closeOnce sync.Once
	onClose   func()
}

func NewClient(conn *websocket.Conn, connID string, owner domain.UserID, sendBuffer int, log *slog.Logger) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		ID:          connID,
		Owner:       owner,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		log:         log,
	}
}

// Handle reports a domain.Connection view of this client.
func (c *Client) Handle() domain.Connection {
	return domain.Connection{ID: c.ID, Owner: c.Owner, ConnectedAt: c.ConnectedAt}
}

// OnClose registers the teardown hook. The transport may signal closure more
// than once (read error, write error, server shutdown); the hook runs exactly
// once.
func (c *Client) OnClose(fn func()) {
	c.onClose = fn
}

// Push queues a payload for the write pump. It never blocks: when the buffer
// is saturated the push is dropped and reported, matching the no-queuing
// delivery contract.
func (c *Client) Push(_ context.Context, payload []byte) error {
	select {
	case c.send <- payload:
		return nil
	default:
		return errors.ErrSendBufferFull
	}
}

// Close terminates the session and fires the teardown hook once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
}

// ReadPump consumes inbound frames until the peer goes away. Clients do not
// speak upstream over the socket (the REST surface does that); reading only
// services pings, pongs and close frames. Blocks until the connection dies.
func (c *Client) ReadPump() {
	defer c.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Debug("Unexpected close", "conn", c.ID, "error", err)
			}
			return
		}
	}
}

// WritePump drains the send buffer to the socket and keeps the connection
// alive with periodic pings. Runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("Write failed", "conn", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
