// Package retention trims the invocation log on a schedule.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger deletes records older than a cutoff and returns how many were removed.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Worker periodically deletes invocations older than the retention window.
type Worker struct {
	purger    Purger
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a retention worker. Nothing runs until Start.
func New(purger Purger, retention, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		purger:    purger,
		retention: retention,
		interval:  interval,
		logger:    logger.Named("retention_worker"),
		now:       time.Now,
	}
}

// Start purges once immediately and then on every interval until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Retention worker started",
		zap.Duration("retention", w.retention),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("Failed to purge invocations", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.logger.Info("Retention worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce deletes everything received before now minus the retention window.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	deleted, err := w.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		w.logger.Debug("Purged expired invocations", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
