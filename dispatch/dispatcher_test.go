package dispatch

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	apperrors "chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// fakeRegistry resolves recipients from a static connection map.
type fakeRegistry struct {
	conns map[domain.UserID][]string
	err   error
}

func (f *fakeRegistry) Register(context.Context, domain.UserID, string) (bool, int64, error) {
	return false, 0, nil
}

func (f *fakeRegistry) Deregister(context.Context, domain.UserID, string) (bool, int64, error) {
	return false, 0, nil
}

func (f *fakeRegistry) Connections(_ context.Context, owner domain.UserID) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conns[owner], nil
}

func (f *fakeRegistry) OnlineUsers(context.Context) ([]domain.UserID, error) {
	var users []domain.UserID
	for id := range f.conns {
		users = append(users, id)
	}
	return users, nil
}

// fakeTable records pushes per connection and can fail selected ones.
type fakeTable struct {
	mu      sync.Mutex
	pushes  map[string][][]byte
	failing map[string]error
}

func newFakeTable() *fakeTable {
	return &fakeTable{pushes: make(map[string][][]byte), failing: make(map[string]error)}
}

func (f *fakeTable) Push(_ context.Context, connID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failing[connID]; ok {
		return err
	}
	f.pushes[connID] = append(f.pushes[connID], payload)
	return nil
}

func (f *fakeTable) count(connID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes[connID])
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func mustEvent(t *testing.T, recipients ...domain.UserID) event.DomainEvent {
	t.Helper()
	evt, err := event.New(event.MessageCreated, map[string]string{"text": "hello"}, recipients)
	require.NoError(t, err)
	return evt
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should push exactly once to every connection of every recipient", func(t *testing.T) {
		req := require.New(t)
		registry := &fakeRegistry{conns: map[domain.UserID][]string{
			"alice": {"alice-1", "alice-2"},
			"bob":   {"bob-1"},
		}}
		table := newFakeTable()
		dispatcher := NewDispatcher(registry, table, testLogger(), time.Second)

		report := dispatcher.Dispatch(ctx, mustEvent(t, "alice", "bob"))

		req.Equal(2, report.Recipients)
		req.Equal(3, report.Delivered)
		req.Zero(report.Failed)
		req.Zero(report.Offline)
		req.Equal(1, table.count("alice-1"))
		req.Equal(1, table.count("alice-2"))
		req.Equal(1, table.count("bob-1"))
	})

	t.Run("should count recipients without connections as offline", func(t *testing.T) {
		req := require.New(t)
		registry := &fakeRegistry{conns: map[domain.UserID][]string{
			"alice": {"alice-1"},
		}}
		table := newFakeTable()
		dispatcher := NewDispatcher(registry, table, testLogger(), time.Second)

		report := dispatcher.Dispatch(ctx, mustEvent(t, "alice", "ghost"))

		req.Equal(2, report.Recipients)
		req.Equal(1, report.Delivered)
		req.Equal(1, report.Offline)
		req.Zero(report.Failed)
	})

	t.Run("should keep delivering when one push fails", func(t *testing.T) {
		req := require.New(t)
		registry := &fakeRegistry{conns: map[domain.UserID][]string{
			"alice": {"alice-1"},
			"bob":   {"bob-1"},
		}}
		table := newFakeTable()
		table.failing["alice-1"] = apperrors.ErrSendBufferFull
		dispatcher := NewDispatcher(registry, table, testLogger(), time.Second)

		report := dispatcher.Dispatch(ctx, mustEvent(t, "alice", "bob"))

		req.Equal(1, report.Delivered)
		req.Equal(1, report.Failed)
		req.Equal(1, table.count("bob-1"))
	})

	t.Run("should degrade a single recipient on registry lookup failure", func(t *testing.T) {
		req := require.New(t)
		registry := &fakeRegistry{err: apperrors.ErrRegistryUnavailable}
		table := newFakeTable()
		dispatcher := NewDispatcher(registry, table, testLogger(), time.Second)

		report := dispatcher.Dispatch(ctx, mustEvent(t, "alice"))

		req.Equal(1, report.Recipients)
		req.Zero(report.Delivered)
		req.Equal(1, report.Failed)
	})

	t.Run("should deduplicate recipients before resolving", func(t *testing.T) {
		req := require.New(t)
		registry := &fakeRegistry{conns: map[domain.UserID][]string{
			"alice": {"alice-1"},
		}}
		table := newFakeTable()
		dispatcher := NewDispatcher(registry, table, testLogger(), time.Second)

		report := dispatcher.Dispatch(ctx, mustEvent(t, "alice", "alice"))

		req.Equal(1, report.Recipients)
		req.Equal(1, table.count("alice-1"))
	})

	t.Run("should return an empty report for an empty recipient set", func(t *testing.T) {
		req := require.New(t)
		table := newFakeTable()
		dispatcher := NewDispatcher(&fakeRegistry{}, table, testLogger(), time.Second)

		report := dispatcher.Dispatch(ctx, mustEvent(t))

		req.Zero(report.Recipients)
		req.Zero(report.Delivered)
	})
}
