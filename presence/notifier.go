package presence

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"

	"github.com/samber/lo"
)

// Notifier turns registry count transitions into presence broadcasts.
//
// The broadcast is strictly a function of the 0->1 and 1->0 transitions, not
// of individual connect/disconnect calls: a user juggling several devices
// never spams online/offline to their peers. Failures here are observability
// noise, never errors for the caller.
type Notifier struct {
	registry   contract.IRegistry
	dispatcher contract.IDispatcher
	log        *slog.Logger
}

func NewNotifier(registry contract.IRegistry, dispatcher contract.IDispatcher, log *slog.Logger) *Notifier {
	return &Notifier{registry: registry, dispatcher: dispatcher, log: log}
}

// ConnectionOpened broadcasts user.online to the other online users when the
// owner's first connection appears.
func (n *Notifier) ConnectionOpened(ctx context.Context, owner domain.UserID, added bool, total int64) {
	if !added || total != 1 {
		return
	}
	n.broadcast(ctx, event.UserOnline, owner)
}

// ConnectionClosed broadcasts user.offline when the owner's last connection is
// gone. A deregistration that removed nothing is a duplicate and stays silent.
func (n *Notifier) ConnectionClosed(ctx context.Context, owner domain.UserID, removed bool, remaining int64) {
	if !removed || remaining != 0 {
		return
	}
	n.broadcast(ctx, event.UserOffline, owner)
}

// broadcast computes the recipient set after the registry mutation, so the
// subject is excluded both as sender and as recipient.
func (n *Notifier) broadcast(ctx context.Context, kind event.Kind, owner domain.UserID) {
	online, err := n.registry.OnlineUsers(ctx)
	if err != nil {
		n.log.Warn("Presence broadcast skipped, registry unreachable", "kind", kind, "user", owner, "error", err)
		return
	}

	recipients := lo.Reject(online, func(id domain.UserID, _ int) bool { return id == owner })
	if len(recipients) == 0 {
		return
	}

	evt, err := event.New(kind, event.PresencePayload{UserID: owner}, recipients)
	if err != nil {
		n.log.Error("Failed to build presence event", "kind", kind, "error", err)
		return
	}

	report := n.dispatcher.Dispatch(ctx, evt)
	n.log.Debug("Presence transition broadcast",
		"kind", kind, "user", owner, "recipients", report.Recipients, "delivered", report.Delivered)
}

var _ contract.INotifier = (*Notifier)(nil)
