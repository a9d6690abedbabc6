package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
	"github.com/garystarr-surgi/invoice-lock/internal/lock"
)

// Digester sends the locked customer digest.
type Digester interface {
	Digest(ctx context.Context) (lock.DigestSummary, error)
}

// LockDigestJob handles lock:weekly_digest.
type LockDigestJob struct {
	Digester Digester
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewLockDigestJob initialises the digest handler.
func NewLockDigestJob(digester Digester, logger *slog.Logger, metrics *jobmetrics.Metrics) *LockDigestJob {
	return &LockDigestJob{Digester: digester, Logger: logger, Metrics: metrics}
}

// Handle queues one digest email per account manager. Failed managers are
// reported but the task is not retried, so managers already emailed are not
// emailed twice.
func (j *LockDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Digester == nil {
		return errors.New("lock digest: handler not configured")
	}
	payload, err := decodeLockPayload(t)
	if err != nil {
		return fmt.Errorf("lock digest: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("task", TaskLockWeeklyDigest), slog.String("trigger", payload.Trigger))

	tracker := j.Metrics.Track(TaskLockWeeklyDigest)
	summary, err := j.Digester.Digest(ctx)
	if err != nil {
		logger.Error("lock digest failed",
			slog.Int("sent", summary.Sent),
			slog.Int("failed", summary.Failed),
			slog.Any("error", err),
		)
		if summary.Sent > 0 {
			return tracker.End(fmt.Errorf("lock digest: %w: %w", err, asynq.SkipRetry))
		}
		return tracker.End(err)
	}
	logger.Info("lock digest finished",
		slog.Int("locked", summary.LockedCustomers),
		slog.Int("sent", summary.Sent),
		slog.Int("unassigned", summary.Unassigned),
	)
	return tracker.End(nil)
}
