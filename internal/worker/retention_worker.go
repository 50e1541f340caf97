// Package worker holds the background loops that keep stored state within
// its retention windows.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
)

const purgeBatchSize = 100

// RetentionWorker purges idempotency key records once they age past the
// retention window. An expired key behaves as unseen again, so purging is
// what makes key reuse after the window legal.
type RetentionWorker struct {
	store     idempotency.Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewRetentionWorker(
	store idempotency.Store,
	retention time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *RetentionWorker {
	return &RetentionWorker{
		store:     store,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	w.logger.Info("retention worker started", "interval", w.interval, "retention", w.retention)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.purgeExpired(ctx); err != nil {
		w.logger.Error("retention purge failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopping")
			return
		case <-ticker.C:
			if err := w.purgeExpired(ctx); err != nil {
				w.logger.Error("retention purge failed", "error", err)
			}
		}
	}
}

// purgeExpired deletes in batches until the table is clean for this pass.
func (w *RetentionWorker) purgeExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-w.retention)

	var total int
	for {
		deleted, err := w.store.DeleteExpired(ctx, cutoff, purgeBatchSize)
		if err != nil {
			return err
		}
		total += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	if total > 0 {
		w.logger.Info("purged expired idempotency keys", "deleted", total)
	}

	return nil
}
