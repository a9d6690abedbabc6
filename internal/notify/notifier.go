package notify

import (
	"context"
	"log/slog"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
)

// Notifier renders lock emails and queues them for delivery.
type Notifier struct {
	queue  Enqueuer
	logger *slog.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(queue Enqueuer, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{queue: queue, logger: logger}
}

// LockNotice queues the tier change email for the account manager.
func (n *Notifier) LockNotice(ctx context.Context, notice lock.Notice) error {
	email, err := RenderLockNotice(notice)
	if err != nil {
		return err
	}
	if err := n.queue.EnqueueSendEmail(ctx, email); err != nil {
		return err
	}
	n.logger.Debug("lock notice queued",
		slog.Int64("customer_id", notice.Customer.CustomerID),
		slog.String("tier", string(notice.Tier)),
	)
	return nil
}

// Digest queues the weekly summary for one account manager.
func (n *Notifier) Digest(ctx context.Context, entry lock.DigestEntry) error {
	email, err := RenderDigest(entry)
	if err != nil {
		return err
	}
	return n.queue.EnqueueSendEmail(ctx, email)
}

var _ lock.Notifier = (*Notifier)(nil)
