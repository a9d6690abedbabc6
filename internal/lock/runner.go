package lock

import (
	"context"
	"errors"
	"time"

	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("lock: run already in progress")

// Guard runs fn only when key is free across processes.
type Guard interface {
	TryRun(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error)
}

// Runner executes Service.Run under the distributed run lock so scheduled
// and manual runs never overlap.
type Runner struct {
	service *Service
	guard   Guard
	ttl     time.Duration
}

// NewRunner wraps service. A nil guard runs unguarded.
func NewRunner(service *Service, guard Guard, ttl time.Duration) *Runner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Runner{service: service, guard: guard, ttl: ttl}
}

// Run performs one guarded lock run. It returns ErrRunInProgress when the
// run lock is held elsewhere.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	if r.guard == nil {
		return r.service.Run(ctx)
	}
	var summary RunSummary
	ran, err := r.guard.TryRun(ctx, shared.OverdueRunLockKey, r.ttl, func(ctx context.Context) error {
		var runErr error
		summary, runErr = r.service.Run(ctx)
		return runErr
	})
	if err != nil {
		return summary, err
	}
	if !ran {
		return RunSummary{}, ErrRunInProgress
	}
	return summary, nil
}

// Service returns the wrapped service.
func (r *Runner) Service() *Service {
	return r.service
}
