// Package dispatch fans domain events out to the live connections of their
// recipients.
//
// Delivery is best-effort: a recipient with no live connection receives
// nothing, pushes are never queued or retried, and durable catch-up belongs to
// the historical fetch path. A sender must always see its business operation
// succeed even when every live push fails.
package dispatch

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

const defaultPushTimeout = 5 * time.Second

type Dispatcher struct {
	registry    contract.IRegistry
	conns       contract.ConnectionTable
	log         *slog.Logger
	pushTimeout time.Duration
}

func NewDispatcher(registry contract.IRegistry, conns contract.ConnectionTable, log *slog.Logger, pushTimeout time.Duration) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	return &Dispatcher{registry: registry, conns: conns, log: log, pushTimeout: pushTimeout}
}

// Dispatch resolves each recipient to its live connections and pushes the
// framed event to each of them exactly once, concurrently. The connection set
// is the one observed at lookup time: a connection registered after Dispatch
// returns never retroactively receives the event.
func (d *Dispatcher) Dispatch(ctx context.Context, evt event.DomainEvent) event.DeliveryReport {
	recipients := lo.Uniq(evt.Recipients)
	report := event.DeliveryReport{Recipients: len(recipients)}
	if len(recipients) == 0 {
		return report
	}

	frame, err := evt.Frame(time.Now())
	if err != nil {
		d.log.Error("Failed to frame event", "kind", evt.Kind, "error", err)
		report.Failed = len(recipients)
		return report
	}

	var delivered, failed atomic.Int64
	var offline int
	var wg sync.WaitGroup

	for _, recipient := range recipients {
		connIDs, err := d.registry.Connections(ctx, recipient)
		if err != nil {
			// Registry outage degrades this recipient only.
			d.log.Warn("Recipient lookup failed", "kind", evt.Kind, "user", recipient, "error", err)
			failed.Add(1)
			continue
		}
		if len(connIDs) == 0 {
			offline++
			continue
		}

		// One goroutine per push: a stalled connection must not hold the
		// batch hostage, each push bounds its own failure.
		for _, connID := range connIDs {
			wg.Add(1)
			go func(connID string) {
				defer wg.Done()
				pushCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
				defer cancel()
				if err := d.conns.Push(pushCtx, connID, frame); err != nil {
					d.log.Warn("Push failed", "kind", evt.Kind, "conn", connID, "error", err)
					failed.Add(1)
					return
				}
				delivered.Add(1)
			}(connID)
		}
	}
	wg.Wait()

	report.Delivered = int(delivered.Load())
	report.Failed += int(failed.Load())
	report.Offline = offline
	return report
}

var _ contract.IDispatcher = (*Dispatcher)(nil)
