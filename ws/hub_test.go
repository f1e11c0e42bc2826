package ws

import (
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func TestHub_AttachPushDetach(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := NewHub(testLogger())
	client := NewClient(nil, "conn-1", "alice", 4, testLogger())

	// Given an attached client
	hub.Attach(client)
	req.Equal(1, hub.Len())

	// When pushing to it
	req.NoError(hub.Push(ctx, "conn-1", []byte("hello")))

	// Then the payload is queued for the write pump
	select {
	case payload := <-client.send:
		req.Equal([]byte("hello"), payload)
	default:
		req.Fail("payload was not queued")
	}

	// And once detached the connection is unknown
	hub.Detach("conn-1")
	req.Zero(hub.Len())
	req.ErrorIs(hub.Push(ctx, "conn-1", []byte("late")), errors.ErrUnknownConnection)
}

func TestHub_PushUnknownConnection(t *testing.T) {
	req := require.New(t)
	hub := NewHub(testLogger())

	err := hub.Push(context.Background(), "ghost", []byte("hello"))

	req.ErrorIs(err, errors.ErrUnknownConnection)
}

func TestClient_PushBufferFull(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client := NewClient(nil, "conn-1", "alice", 1, testLogger())

	// Given a saturated send buffer
	req.NoError(client.Push(ctx, []byte("first")))

	// When pushing again without a draining write pump
	err := client.Push(ctx, []byte("second"))

	// Then the push is dropped, not queued
	req.ErrorIs(err, errors.ErrSendBufferFull)
}

func TestClient_Handle(t *testing.T) {
	req := require.New(t)
	client := NewClient(nil, "conn-1", "alice", 1, testLogger())

	handle := client.Handle()

	req.Equal("conn-1", handle.ID)
	req.EqualValues("alice", handle.Owner)
	req.False(handle.ConnectedAt.IsZero())
}
