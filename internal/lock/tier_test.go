package lock

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func TestTierForDays(t *testing.T) {
	cases := map[int]Tier{
		-3: TierNone,
		0:  TierNone,
		39: TierNone,
		40: TierSoft,
		49: TierSoft,
		50: TierHard,
		51: TierHard,
		90: TierHard,
	}
	for days, want := range cases {
		require.Equal(t, want, TierForDays(days), "days=%d", days)
	}
}

func TestDaysOverdueIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2025, 1, 10, 23, 59, 0, 0, time.UTC)
	asOf := time.Date(2025, 2, 19, 0, 1, 0, 0, time.UTC)
	require.Equal(t, 40, DaysOverdue(due, asOf))
	require.Equal(t, -1, DaysOverdue(day(2025, 2, 20), asOf))
}

func TestTodayUsesLocation(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	require.Equal(t, day(2025, 3, 2), Today(now, tokyo))
	require.Equal(t, day(2025, 3, 1), Today(now, nil))
	require.Equal(t, day(2025, 1, 20), OldestDueDate(day(2025, 3, 1)))
}

func TestStatusHTML(t *testing.T) {
	require.Contains(t, string(StatusHTML(intPtr(50))), "CUSTOMER IS HARD LOCKED (50+ DAYS OVERDUE)")
	require.Contains(t, string(StatusHTML(intPtr(50))), "#f8d7da")
	require.Contains(t, string(StatusHTML(intPtr(42))), "CUSTOMER IS SOFT LOCKED (40+ DAYS OVERDUE) SEE ACCOUNTING.")
	require.Contains(t, string(StatusHTML(intPtr(42))), "#fff3cd")
	require.Equal(t, `<span class="text-muted">Locked</span>`, string(StatusHTML(nil)))
	require.Equal(t, `<span class="text-muted">Locked</span>`, string(StatusHTML(intPtr(12))))
}

func inv(number string, customer int64, due time.Time, amount string) OverdueInvoice {
	return OverdueInvoice{
		Number:      number,
		CustomerID:  customer,
		CompanyID:   1,
		Currency:    "USD",
		Outstanding: decimal.RequireFromString(amount),
		DueAt:       due,
	}
}

func TestAggregateKeepsMostOverdue(t *testing.T) {
	asOf := day(2025, 6, 30)
	invoices := []OverdueInvoice{
		inv("INV-1", 1, asOf.AddDate(0, 0, -41), "100"),
		inv("INV-2", 1, asOf.AddDate(0, 0, -55), "50"),
		inv("INV-3", 1, asOf.AddDate(0, 0, -45), "10"),
		inv("INV-4", 2, asOf.AddDate(0, 0, -44), "70"),
		inv("INV-5", 2, asOf.AddDate(0, 0, -44), "80"),
		inv("INV-6", 3, asOf.AddDate(0, 0, -39), "99"),
	}
	got := Aggregate(invoices, asOf)

	require.Len(t, got, 2)
	require.Equal(t, "INV-2", got[1].Invoice.Number)
	require.Equal(t, 55, got[1].DaysOverdue)
	require.Equal(t, TierHard, got[1].Tier)

	require.Equal(t, "INV-4", got[2].Invoice.Number, "first invoice wins ties")
	require.Equal(t, TierSoft, got[2].Tier)

	_, ok := got[3]
	require.False(t, ok)
}

func TestEvaluate(t *testing.T) {
	soft45 := Decision{Invoice: inv("INV-1", 7, day(2025, 1, 1), "1"), DaysOverdue: 45, Tier: TierSoft}

	cases := []struct {
		name          string
		current       CustomerLock
		decision      Decision
		statusChanged bool
		needsSave     bool
	}{
		{"unlocked customer", CustomerLock{CustomerID: 7}, soft45, true, true},
		{"same tier same days", CustomerLock{CustomerID: 7, Locked: true, Status: TierSoft, DaysOverdue: intPtr(45)}, soft45, false, false},
		{"same tier more days", CustomerLock{CustomerID: 7, Locked: true, Status: TierSoft, DaysOverdue: intPtr(44)}, soft45, false, true},
		{"tier escalates", CustomerLock{CustomerID: 7, Locked: true, Status: TierSoft, DaysOverdue: intPtr(49)},
			Decision{DaysOverdue: 50, Tier: TierHard}, true, true},
		{"manually unlocked keeps stale status", CustomerLock{CustomerID: 7, Locked: false, Status: TierSoft, DaysOverdue: intPtr(45)}, soft45, true, true},
		{"locked without days", CustomerLock{CustomerID: 7, Locked: true, Status: TierSoft}, soft45, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := Evaluate(tc.current, tc.decision)
			require.Equal(t, tc.statusChanged, tr.StatusChanged)
			require.Equal(t, tc.needsSave, tr.NeedsSave)

			want := tc.current
			want.Locked = true
			want.Status = tc.decision.Tier
			want.DaysOverdue = intPtr(tc.decision.DaysOverdue)
			if diff := cmp.Diff(want, tr.Next); diff != "" {
				t.Fatalf("next state mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, tc.current, tr.Previous)
		})
	}
}

func TestLockedErrorMessage(t *testing.T) {
	err := &LockedError{Doctype: "Sales Order", Customer: "Acme Ltd", Status: "Hard Locked", DaysOverdue: 53}
	require.Equal(t, "Cannot save Sales Order. Customer Acme Ltd is Hard Locked due to invoices 53 days past due.", err.Error())
	require.Equal(t, "Customer Locked", err.ProblemTitle())
	require.EqualError(t, ErrUnlockForbidden, "lock: unlock forbidden")
	require.EqualError(t, &UnlockError{CustomerID: 1}, "Only users with the Customer Unlocker role can unlock customers.")
}
