package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StorageGC reclaims Badger value-log space in the background. Badger only
// garbage-collects when asked; without this loop the value log grows
// unbounded on busy conversations.
type StorageGC struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewStorageGC(log *slog.Logger, db *badger.DB, interval time.Duration) *StorageGC {
	return &StorageGC{log: log, db: db, interval: interval}
}

func (w *StorageGC) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Rewrite a value-log file when at least half of it is stale.
			// ErrNoRewrite just means there was nothing worth collecting.
			if err := w.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				w.log.Warn("Value log GC failed", "error", err)
			}
		}
	}
}
