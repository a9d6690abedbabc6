package customers

import (
	"time"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
)

type Customer struct {
	ID                     int64     `json:"id"`
	Code                   string    `json:"code"`
	Name                   string    `json:"name"`
	Email                  *string   `json:"email,omitempty"`
	AccountManagerID       *int64    `json:"account_manager_id,omitempty"`
	AccountManagerEmail    string    `json:"account_manager_email,omitempty"`
	IsActive               bool      `json:"is_active"`
	AccountLocked          bool      `json:"account_locked"`
	AccountLockStatus      string    `json:"account_lock_status,omitempty"`
	AccountLockDaysOverdue *int      `json:"account_lock_days_overdue,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// LockState returns the lock fields of the customer.
func (c Customer) LockState() lock.CustomerLock {
	return lock.CustomerLock{
		CustomerID:          c.ID,
		Code:                c.Code,
		Name:                c.Name,
		AccountManagerEmail: c.AccountManagerEmail,
		Locked:              c.AccountLocked,
		Status:              lock.Tier(c.AccountLockStatus),
		DaysOverdue:         c.AccountLockDaysOverdue,
	}
}

func (c *Customer) setLockState(l lock.CustomerLock) {
	c.AccountLocked = l.Locked
	c.AccountLockStatus = string(l.Status)
	c.AccountLockDaysOverdue = l.DaysOverdue
}
