package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// LocalConnCounter reports the number of connections attached to this process.
type LocalConnCounter interface {
	Len() int
}

// Reporter periodically logs process health and presence figures. Pure
// observability: presence and delivery failures surface here and in logs,
// never as errors to domain collaborators.
type Reporter struct {
	log      *slog.Logger
	registry contract.IRegistry
	conns    LocalConnCounter
	interval time.Duration
}

func NewReporter(log *slog.Logger, registry contract.IRegistry, conns LocalConnCounter, interval time.Duration) *Reporter {
	return &Reporter{log: log, registry: registry, conns: conns, interval: interval}
}

// Run emits one report per interval until the context is canceled.
func (w *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			online := -1
			if users, err := w.registry.OnlineUsers(ctx); err == nil {
				online = len(users)
			}

			w.log.Info("Runtime report",
				"local_conns", w.conns.Len(),
				"online_users", online,
				"ram_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

// selfStats retrieves memory and CPU figures for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
