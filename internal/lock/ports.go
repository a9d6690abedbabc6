package lock

import (
	"context"
	"time"
)

// InvoiceSource lists unpaid posted invoices due strictly before cutoff,
// ordered by customer, due date and number.
type InvoiceSource interface {
	ListOverdue(ctx context.Context, cutoff time.Time) ([]OverdueInvoice, error)
}

// Repository reads and writes customer lock state.
type Repository interface {
	GetCustomerLock(ctx context.Context, customerID int64) (CustomerLock, error)
	// ApplyLock locks the customer row, hands its current state to decide and
	// persists the returned transition with its audit entry when NeedsSave is
	// set. Read, decision and write share one transaction.
	ApplyLock(ctx context.Context, runID string, customerID int64, decide func(CustomerLock) Transition) (Transition, error)
	ListLocked(ctx context.Context) ([]CustomerLock, error)
}

// Notice is sent to the account manager when a customer changes tier.
type Notice struct {
	RunID       string
	Customer    CustomerLock
	Invoice     OverdueInvoice
	Tier        Tier
	DaysOverdue int
	AsOf        time.Time
}

// DigestEntry lists the locked customers of one account manager.
type DigestEntry struct {
	ManagerEmail string
	Customers    []CustomerLock
	AsOf         time.Time
}

// Notifier delivers lock emails.
type Notifier interface {
	LockNotice(ctx context.Context, n Notice) error
	Digest(ctx context.Context, d DigestEntry) error
}

// StatusCache caches the lock status served to clients.
type StatusCache interface {
	Fetch(ctx context.Context, id string, dest any, loader func(context.Context) (any, error)) error
	Delete(ctx context.Context, ids ...string) error
}

// Recorder receives lock counters.
type Recorder interface {
	AddLocks(tier string, n int)
	AddNotifications(kind, outcome string, n int)
}

type noopRecorder struct{}

func (noopRecorder) AddLocks(string, int)                 {}
func (noopRecorder) AddNotifications(string, string, int) {}
