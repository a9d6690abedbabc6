package lock

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	customers := []CustomerLock{
		{CustomerID: 1, Code: "CUST-001", Name: "Acme Ltd", AccountManagerEmail: "am@example.com", Locked: true, Status: TierHard, DaysOverdue: intPtr(61)},
		{CustomerID: 2, Code: "CUST-002", Name: "Beta", Locked: true},
	}
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, customers, day(2025, 6, 30)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Equal(t, "Locked customers as of 2025-06-30", rows[0][0])
	require.Equal(t, reportHeadings, rows[2])
	require.Equal(t, []string{"CUST-001", "Acme Ltd", "Hard Locked", "61", "am@example.com"}, rows[3])
	require.Equal(t, []string{"CUST-002", "Beta", "Locked"}, rows[4])
}
