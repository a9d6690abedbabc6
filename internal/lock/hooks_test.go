package lock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
)

type actor struct {
	admin bool
	roles []string
}

func (a actor) IsSuperUser() bool { return a.admin }

func (a actor) HasRole(name string) bool {
	for _, r := range a.roles {
		if r == name {
			return true
		}
	}
	return false
}

func lockedCustomer() *CustomerLock {
	return &CustomerLock{CustomerID: 1, Locked: true, Status: TierHard, DaysOverdue: intPtr(51)}
}

func TestEnforceUnlockPermissions(t *testing.T) {
	unlocked := func() *CustomerLock {
		c := lockedCustomer()
		c.Locked = false
		return c
	}

	t.Run("new customer", func(t *testing.T) {
		require.NoError(t, EnforceUnlockPermissions(actor{}, nil, unlocked()))
	})

	t.Run("not unlocking", func(t *testing.T) {
		after := lockedCustomer()
		require.NoError(t, EnforceUnlockPermissions(actor{}, lockedCustomer(), after))
		require.Equal(t, TierHard, after.Status)
	})

	t.Run("plain user", func(t *testing.T) {
		after := unlocked()
		err := EnforceUnlockPermissions(actor{roles: []string{"Sales User"}}, lockedCustomer(), after)
		require.ErrorIs(t, err, ErrUnlockForbidden)
		require.ErrorIs(t, err, httpx.ErrForbidden)
		require.EqualError(t, err, "Only users with the Customer Unlocker role can unlock customers.")

		var ue *UnlockError
		require.ErrorAs(t, err, &ue)
		require.Equal(t, "Insufficient Permission", ue.ProblemTitle())
		require.Equal(t, TierHard, after.Status)
	})

	t.Run("unlocker role", func(t *testing.T) {
		after := unlocked()
		require.NoError(t, EnforceUnlockPermissions(actor{roles: []string{"Customer Unlocker"}}, lockedCustomer(), after))
		require.Equal(t, TierNone, after.Status)
		require.Nil(t, after.DaysOverdue)
	})

	t.Run("administrator", func(t *testing.T) {
		after := unlocked()
		require.NoError(t, EnforceUnlockPermissions(actor{admin: true}, lockedCustomer(), after))
		require.Nil(t, after.DaysOverdue)
	})

	t.Run("anonymous", func(t *testing.T) {
		require.ErrorIs(t, EnforceUnlockPermissions(nil, lockedCustomer(), unlocked()), ErrUnlockForbidden)
	})
}

func TestSyncLockMetadata(t *testing.T) {
	c := &CustomerLock{Locked: false, Status: TierSoft, DaysOverdue: intPtr(41)}
	SyncLockMetadata(c)
	require.Equal(t, TierNone, c.Status)
	require.Nil(t, c.DaysOverdue)

	locked := lockedCustomer()
	SyncLockMetadata(locked)
	require.Equal(t, TierHard, locked.Status)
	require.Equal(t, 51, *locked.DaysOverdue)

	SyncLockMetadata(nil)
}
