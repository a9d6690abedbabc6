package lock

import (
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// Unlocker is the acting user of a customer save.
type Unlocker interface {
	IsSuperUser() bool
	HasRole(name string) bool
}

// EnforceUnlockPermissions refuses to clear the lock flag of an existing
// customer unless the actor is the administrator or holds the Customer
// Unlocker role. When the unlock is allowed the lock metadata of after is
// cleared. before is nil for new customers.
func EnforceUnlockPermissions(actor Unlocker, before *CustomerLock, after *CustomerLock) error {
	if before == nil || after == nil {
		return nil
	}
	unlocking := before.Locked && !after.Locked
	if !unlocking {
		return nil
	}
	if actor == nil || (!actor.IsSuperUser() && !actor.HasRole(shared.RoleCustomerUnlocker)) {
		return &UnlockError{CustomerID: before.CustomerID}
	}
	after.Status = TierNone
	after.DaysOverdue = nil
	return nil
}

// SyncLockMetadata clears status and day count of an unlocked customer.
func SyncLockMetadata(c *CustomerLock) {
	if c == nil || c.Locked {
		return
	}
	c.Status = TierNone
	c.DaysOverdue = nil
}
