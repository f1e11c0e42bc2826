//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

// IRegistry is the presence registry: a concurrency-safe mapping from a user
// to the set of their live connection ids, backed by a durable store.
// Per-owner mutations are atomic; two devices of the same user connecting or
// disconnecting in the same instant must never lose an update.
type IRegistry interface {
	// Register adds connID to the owner's set, creating the entry if absent.
	// added is false when connID was already present. total is the resulting
	// set size, so callers can detect a 0->1 transition.
	Register(ctx context.Context, owner domain.UserID, connID string) (added bool, total int64, err error)
	// Deregister removes connID from the owner's set. The entry disappears
	// entirely once the set is empty. removed is false when connID was absent,
	// which makes duplicate deregistration a no-op rather than a second 1->0
	// signal. remaining is the resulting set size.
	Deregister(ctx context.Context, owner domain.UserID, connID string) (removed bool, remaining int64, err error)
	// Connections returns the current live set. Absence is a valid empty
	// result, never an error.
	Connections(ctx context.Context, owner domain.UserID) ([]string, error)
	// OnlineUsers lists every user with at least one live connection.
	// O(distinct online users), not O(total devices).
	OnlineUsers(ctx context.Context) ([]domain.UserID, error)
}

// IDispatcher delivers a domain event to every live connection of every
// recipient. Best-effort: no queuing, no retry, per-push failures are logged
// and absorbed.
type IDispatcher interface {
	Dispatch(ctx context.Context, evt event.DomainEvent) event.DeliveryReport
}

// ConnectionTable resolves local connection ids to live transport sessions.
// The websocket hub implements it.
type ConnectionTable interface {
	// Push writes a framed payload to the given connection. A failure concerns
	// that connection only.
	Push(ctx context.Context, connID string, payload []byte) error
}

// INotifier observes registry count transitions and broadcasts online/offline
// events to the other currently-online users.
type INotifier interface {
	ConnectionOpened(ctx context.Context, owner domain.UserID, added bool, total int64)
	ConnectionClosed(ctx context.Context, owner domain.UserID, removed bool, remaining int64)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
