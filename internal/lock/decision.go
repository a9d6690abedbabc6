package lock

import (
	"time"

	"github.com/garystarr-surgi/invoice-lock/internal/ar"
)

// OverdueInvoice is an unpaid posted invoice as read by the scanner.
type OverdueInvoice = ar.OverdueInvoice

// CustomerLock is the lock state stored on a customer.
type CustomerLock struct {
	CustomerID          int64  `json:"customer_id"`
	Code                string `json:"code"`
	Name                string `json:"name"`
	AccountManagerEmail string `json:"account_manager_email,omitempty"`
	Locked              bool   `json:"locked"`
	Status              Tier   `json:"status"`
	DaysOverdue         *int   `json:"days_overdue"`
}

// Decision is the lock a customer should carry after a scan, driven by its
// most overdue invoice.
type Decision struct {
	Invoice     OverdueInvoice
	DaysOverdue int
	Tier        Tier
}

// Transition compares stored state with a decision.
type Transition struct {
	Previous      CustomerLock
	Next          CustomerLock
	Decision      Decision
	StatusChanged bool
	NeedsSave     bool
}

// Aggregate keeps, per customer, the invoice with the greatest days overdue
// among those that reach a tier. On equal days the first invoice seen wins.
func Aggregate(invoices []OverdueInvoice, asOf time.Time) map[int64]Decision {
	out := make(map[int64]Decision)
	for _, inv := range invoices {
		days := DaysOverdue(inv.DueAt, asOf)
		tier := TierForDays(days)
		if tier == TierNone {
			continue
		}
		existing, ok := out[inv.CustomerID]
		if !ok || days > existing.DaysOverdue {
			out[inv.CustomerID] = Decision{Invoice: inv, DaysOverdue: days, Tier: tier}
		}
	}
	return out
}

// Evaluate decides whether current must be rewritten to carry d. The status
// counts as changed when the tier differs or the customer is not locked yet;
// a save is also needed when only the day count moved.
func Evaluate(current CustomerLock, d Decision) Transition {
	statusChanged := current.Status != d.Tier || !current.Locked
	daysChanged := current.DaysOverdue == nil || *current.DaysOverdue != d.DaysOverdue

	next := current
	next.Locked = true
	next.Status = d.Tier
	days := d.DaysOverdue
	next.DaysOverdue = &days

	return Transition{
		Previous:      current,
		Next:          next,
		Decision:      d,
		StatusChanged: statusChanged,
		NeedsSave:     statusChanged || daysChanged,
	}
}
