package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockLost cancels the context handed to TryRun's fn when the key could
// not be refreshed.
var ErrLockLost = errors.New("platform/cache: lock lost")

// Mutex is a Redis backed lock shared by every process talking to the same
// Redis instance.
type Mutex struct {
	locker *redislock.Client
}

// NewMutex wraps client in a distributed mutex.
func NewMutex(client *redis.Client) *Mutex {
	return &Mutex{locker: redislock.New(client)}
}

// TryRun executes fn while holding key. When another holder owns the key,
// fn is not called and ran is false. The key TTL is extended every ttl/2
// while fn runs; if an extension fails the context passed to fn is
// cancelled with ErrLockLost.
func (m *Mutex) TryRun(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (ran bool, err error) {
	lock, err := m.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("platform/cache: obtain %s: %w", key, err)
	}
	defer func() {
		releaseErr := lock.Release(context.WithoutCancel(ctx))
		if releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) && err == nil {
			err = fmt.Errorf("platform/cache: release %s: %w", key, releaseErr)
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(runCtx, lock, ttl, cancel)
	}()
	err = fn(runCtx)
	cancel(nil)
	<-done
	return true, err
}

func keepAlive(ctx context.Context, lock *redislock.Lock, ttl time.Duration, cancel context.CancelCauseFunc) {
	every := ttl / 2
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Refresh(ctx, ttl, nil); err != nil {
				if ctx.Err() != nil {
					return
				}
				cancel(fmt.Errorf("%w: %s: %w", ErrLockLost, lock.Key(), err))
				return
			}
		}
	}
}
