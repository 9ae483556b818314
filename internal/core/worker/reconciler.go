package worker

import (
	"context"
	"log/slog"
	"time"
)

// Reconciling is the storage surface the reconciler drives.
type Reconciling interface {
	ReconcileNext(ctx context.Context, grace time.Duration, maxAttempts int) (bool, error)
	CountStuckPublishing(ctx context.Context, grace time.Duration) (int64, error)
}

const (
	pollInterval = 5 * time.Second
	recordGrace  = 30 * time.Second
	maxAttempts  = 5
	// An intent still "publishing" after this long has an unknown
	// publish outcome. It is only reported, never re-published.
	stuckPublishingGrace = 5 * time.Minute
)

// StartReconciler runs the background loop that re-drives attempt
// record writes for intents whose publish was confirmed but whose
// record write did not land. Stops when ctx is canceled.
func StartReconciler(ctx context.Context, store Reconciling, logger *slog.Logger) {
	go func() {
		logger.Info("reconciler started", "poll_interval", pollInterval.String())
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("reconciler stopped")
				return
			case <-ticker.C:
				runOnce(ctx, store, logger)
			}
		}
	}()
}

func runOnce(ctx context.Context, store Reconciling, logger *slog.Logger) {
	// Drain everything due right now; each call claims one row.
	for {
		did, err := store.ReconcileNext(ctx, recordGrace, maxAttempts)
		if err != nil {
			logger.Error("reconciler pass failed", "error", err)
			break
		}
		if !did {
			break
		}
		logger.Info("re-drove attempt record write")
	}

	stuck, err := store.CountStuckPublishing(ctx, stuckPublishingGrace)
	if err != nil {
		logger.Error("failed to count stuck intents", "error", err)
		return
	}
	if stuck > 0 {
		logger.Warn("intents with unknown publish outcome need manual reconciliation", "count", stuck)
	}
}
