package lock

import (
	"errors"
	"fmt"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
)

var (
	// ErrCustomerLocked rejects sales documents for a locked customer.
	ErrCustomerLocked = errors.New("customer locked")
	// ErrUnlockForbidden rejects clearing a lock without the unlocker role.
	ErrUnlockForbidden = errors.New("lock: unlock forbidden")
	// ErrCustomerNotFound is returned when the customer does not exist.
	ErrCustomerNotFound = errors.New("lock: customer not found")
)

// LockedError explains why a document for a locked customer was refused.
type LockedError struct {
	Doctype     string
	Customer    string
	Status      string
	DaysOverdue int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("Cannot save %s. Customer %s is %s due to invoices %d days past due.",
		e.Doctype, e.Customer, e.Status, e.DaysOverdue)
}

// Is matches ErrCustomerLocked and httpx.ErrUnprocessable.
func (e *LockedError) Is(target error) bool {
	return target == ErrCustomerLocked || target == httpx.ErrUnprocessable
}

// ProblemTitle is the title of the HTTP problem response.
func (e *LockedError) ProblemTitle() string { return "Customer Locked" }

// UnlockError is returned by EnforceUnlockPermissions.
type UnlockError struct {
	CustomerID int64
}

func (e *UnlockError) Error() string {
	return "Only users with the Customer Unlocker role can unlock customers."
}

// Is matches ErrUnlockForbidden and httpx.ErrForbidden.
func (e *UnlockError) Is(target error) bool {
	return target == ErrUnlockForbidden || target == httpx.ErrForbidden
}

// ProblemTitle is the title of the HTTP problem response.
func (e *UnlockError) ProblemTitle() string { return "Insufficient Permission" }
