package worker

import (
	"context"
	"time"

	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
	"github.com/seisaku-lab/yosan/pkg/utils/logging"
)

// LogRetentionWorker periodically deletes analysis log entries older
// than the retention window.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type LogRetentionWorker struct {
	repo      interfaces.Repository
	retention time.Duration
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewLogRetentionWorker creates a worker that keeps the analysis log
// within the given retention window, checking once per interval.
func NewLogRetentionWorker(repo interfaces.Repository, retention, interval time.Duration) *LogRetentionWorker {
	return &LogRetentionWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background cleanup loop
// - Initial cleanup and periodic runs both happen in a background goroutine
// - Does not block server startup
func (w *LogRetentionWorker) Start(ctx context.Context) error {
	logging.Default().Info("Log retention worker starting",
		"retention", w.retention.String(),
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *LogRetentionWorker) Stop() {
	logging.Default().Info("Log retention worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Log retention worker stopped")
}

func (w *LogRetentionWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.cleanup(ctx); err != nil {
		logging.Default().Error("Initial log cleanup failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("Log cleanup failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Log retention worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Log retention worker context cancelled")
			return
		}
	}
}

func (w *LogRetentionWorker) cleanup(ctx context.Context) error {
	startTime := time.Now()
	cutoff := startTime.Add(-w.retention)

	deleted, err := w.repo.AnalysisLog().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		logging.Default().Info("Log cleanup completed",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
			"duration", time.Since(startTime).String())
	}

	return nil
}
