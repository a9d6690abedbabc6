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

// LockRunner performs one guarded lock run.
type LockRunner interface {
	Run(ctx context.Context) (lock.RunSummary, error)
}

// LockCheckJob handles lock:check_overdue.
type LockCheckJob struct {
	Runner  LockRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLockCheckJob initialises the lock check handler.
func NewLockCheckJob(runner LockRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *LockCheckJob {
	return &LockCheckJob{Runner: runner, Logger: logger, Metrics: metrics}
}

// Handle runs the lock check. A run skipped because another worker holds
// the run lock is not retried.
func (j *LockCheckJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("lock check: handler not configured")
	}
	payload, err := decodeLockPayload(t)
	if err != nil {
		return fmt.Errorf("lock check: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := j.logger().With(
		slog.String("task", TaskLockCheckOverdue),
		slog.String("trigger", payload.Trigger),
	)
	if payload.RequestedBy != "" {
		logger = logger.With(slog.String("requested_by", payload.RequestedBy))
	}

	tracker := j.Metrics.Track(TaskLockCheckOverdue)
	summary, err := j.Runner.Run(ctx)
	if errors.Is(err, lock.ErrRunInProgress) {
		tracker.Skip()
		logger.Info("lock check skipped, run already in progress")
		return nil
	}
	if err != nil {
		logger.Error("lock check failed",
			slog.String("run_id", summary.RunID),
			slog.Int("saved", summary.Saved),
			slog.Any("error", err),
		)
		return tracker.End(err)
	}
	logger.Info("lock check finished",
		slog.String("run_id", summary.RunID),
		slog.Int("invoices", summary.InvoicesScanned),
		slog.Int("customers", summary.CustomersEvaluated),
		slog.Int("saved", summary.Saved),
		slog.Int("notified", summary.Notified),
		slog.Duration("duration", summary.Duration),
	)
	return tracker.End(nil)
}

func (j *LockCheckJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
