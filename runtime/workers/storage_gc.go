package workers

import (
	"chat-relay/errors"
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultGCInterval = 10 * time.Minute
	gcDiscardRatio    = 0.5
)

// ValueLogCollector is satisfied by *badger.DB.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) error
}

// StorageGCWorker reclaims badger value log space on a fixed interval.
type StorageGCWorker struct {
	log      *slog.Logger
	clock    clockwork.Clock
	db       ValueLogCollector
	interval time.Duration
}

func NewStorageGCWorker(log *slog.Logger, clock clockwork.Clock, db ValueLogCollector, interval time.Duration) *StorageGCWorker {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &StorageGCWorker{log: log, clock: clock, db: db, interval: interval}
}

func (w *StorageGCWorker) Run(ctx context.Context) error {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			w.collect()
		}
	}
}

// collect rewrites value log files until badger reports nothing left to do.
func (w *StorageGCWorker) collect() {
	rewritten := 0
	for {
		err := w.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			rewritten++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			w.log.Warn("Value log GC failed", "error", err)
		}
		break
	}
	if rewritten > 0 {
		w.log.Info("Value log GC done", "rewritten", rewritten)
	}
}
