package presence

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"sync"
)

type connSet map[string]struct{}

// MemoryRegistry keeps presence in process memory behind one mutex. It serves
// single-node deployments and tests; the contract is identical to the Redis
// registry, including the "entry exists iff the set is non-empty" invariant.
type MemoryRegistry struct {
	mu    sync.RWMutex
	users map[domain.UserID]connSet
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{users: make(map[domain.UserID]connSet)}
}

func (m *MemoryRegistry) Register(_ context.Context, owner domain.UserID, connID string) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.users[owner]
	if !ok {
		conns = make(connSet)
		m.users[owner] = conns
	}
	_, exists := conns[connID]
	conns[connID] = struct{}{}
	return !exists, int64(len(conns)), nil
}

func (m *MemoryRegistry) Deregister(_ context.Context, owner domain.UserID, connID string) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.users[owner]
	if !ok {
		return false, 0, nil
	}
	_, exists := conns[connID]
	if exists {
		delete(conns, connID)
	}
	// Never leave an empty set behind; listing online users must stay a
	// key scan.
	if len(conns) == 0 {
		delete(m.users, owner)
		return exists, 0, nil
	}
	return exists, int64(len(conns)), nil
}

func (m *MemoryRegistry) Connections(_ context.Context, owner domain.UserID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := m.users[owner]
	if len(conns) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out, nil
}

func (m *MemoryRegistry) OnlineUsers(_ context.Context) ([]domain.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.UserID, 0, len(m.users))
	for id := range m.users {
		out = append(out, id)
	}
	return out, nil
}

var _ contract.IRegistry = (*MemoryRegistry)(nil)
