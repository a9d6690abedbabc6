// Package lock classifies customers by their most overdue invoice and keeps
// the customer lock flag, sales document validation and manager notices in
// step with that classification.
package lock

import (
	"time"
)

// Tier is the lock level of a customer. The zero value means not locked.
type Tier string

const (
	TierNone Tier = ""
	TierSoft Tier = "Soft Locked"
	TierHard Tier = "Hard Locked"
)

// Days past due at which a tier applies.
const (
	SoftLockThreshold = 40
	HardLockThreshold = 50
)

// TierForDays maps days overdue to a lock tier.
func TierForDays(days int) Tier {
	switch {
	case days >= HardLockThreshold:
		return TierHard
	case days >= SoftLockThreshold:
		return TierSoft
	default:
		return TierNone
	}
}

// Label is the status shown when a tier is empty.
func (t Tier) Label() string {
	if t == TierNone {
		return "Locked"
	}
	return string(t)
}

// DaysOverdue counts whole calendar days from due to asOf. Both dates are
// compared by their calendar day, the time of day is ignored.
func DaysOverdue(due, asOf time.Time) int {
	return int(dateOf(asOf).Sub(dateOf(due)).Hours() / 24)
}

// Today is the calendar date of now in loc, expressed as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return dateOf(now.In(loc))
}

// OldestDueDate is the overdue scan cutoff for asOf. Only invoices due
// strictly before it are considered, so an invoice exactly SoftLockThreshold
// days past due is not picked up until the next day.
func OldestDueDate(asOf time.Time) time.Time {
	return dateOf(asOf).AddDate(0, 0, -SoftLockThreshold)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
