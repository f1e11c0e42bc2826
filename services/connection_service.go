package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"log/slog"
)

// IConnectionService is the connection lifecycle controller: the transport
// layer's entry point for authenticate -> register -> (serve) -> deregister.
type IConnectionService interface {
	Admit(ctx context.Context, credential string) (domain.UserID, error)
	Attach(ctx context.Context, conn domain.Connection)
	Detach(ctx context.Context, conn domain.Connection)
	OnlineUsers(ctx context.Context) ([]domain.UserID, error)
}

type ConnectionService struct {
	authenticator *auth.Authenticator
	registry      contract.IRegistry
	notifier      contract.INotifier
	log           *slog.Logger
}

func NewConnectionService(
	authenticator *auth.Authenticator,
	registry contract.IRegistry,
	notifier contract.INotifier,
	log *slog.Logger,
) IConnectionService {
	return &ConnectionService{
		authenticator: authenticator,
		registry:      registry,
		notifier:      notifier,
		log:           log,
	}
}

// Admit validates the handshake credential. On failure the transport must
// terminate the connection without the registry ever hearing about it.
func (s *ConnectionService) Admit(_ context.Context, credential string) (domain.UserID, error) {
	return s.authenticator.Authenticate(credential)
}

// Attach registers an authenticated connection and runs the presence
// transition check. A registry outage is absorbed: the connection stays open
// but is invisible to presence and fan-out until the store recovers.
func (s *ConnectionService) Attach(ctx context.Context, conn domain.Connection) {
	added, total, err := s.registry.Register(ctx, conn.Owner, conn.ID)
	if err != nil {
		if stderrors.Is(err, errors.ErrRegistryUnavailable) {
			s.log.Warn("Presence tracking degraded on attach", "user", conn.Owner, "conn", conn.ID, "error", err)
			return
		}
		s.log.Error("Registry register failed", "user", conn.Owner, "conn", conn.ID, "error", err)
		return
	}
	s.log.Info("Connection attached", "user", conn.Owner, "conn", conn.ID, "devices", total)
	s.notifier.ConnectionOpened(ctx, conn.Owner, added, total)
}

// Detach deregisters a closing connection and runs the transition check.
// Deregistering an already-absent connection id is a no-op, so duplicate
// close signals from the transport are harmless.
func (s *ConnectionService) Detach(ctx context.Context, conn domain.Connection) {
	removed, remaining, err := s.registry.Deregister(ctx, conn.Owner, conn.ID)
	if err != nil {
		if stderrors.Is(err, errors.ErrRegistryUnavailable) {
			s.log.Warn("Presence tracking degraded on detach", "user", conn.Owner, "conn", conn.ID, "error", err)
			return
		}
		s.log.Error("Registry deregister failed", "user", conn.Owner, "conn", conn.ID, "error", err)
		return
	}
	if removed {
		s.log.Info("Connection detached", "user", conn.Owner, "conn", conn.ID, "devices", remaining)
	}
	s.notifier.ConnectionClosed(ctx, conn.Owner, removed, remaining)
}

// OnlineUsers lists every user with at least one live connection.
func (s *ConnectionService) OnlineUsers(ctx context.Context) ([]domain.UserID, error) {
	return s.registry.OnlineUsers(ctx)
}
