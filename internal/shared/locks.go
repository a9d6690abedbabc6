package shared

import "fmt"

// OverdueRunLockKey is the redis key serialising lock runs across workers.
const OverdueRunLockKey = "lock:overdue:run"

// CustomerStatusKey builds the cache key of a customer's lock status.
func CustomerStatusKey(customerID int64) string {
	return fmt.Sprintf("%d", customerID)
}
