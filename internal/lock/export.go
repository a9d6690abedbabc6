package lock

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Locked Customers"

var reportHeadings = []string{"Customer Code", "Customer", "Status", "Days Overdue", "Account Manager"}

// ExportXLSX writes the locked customer report as a workbook.
func ExportXLSX(w io.Writer, customers []CustomerLock, asOf time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	if err := f.SetCellValue(reportSheet, "A1", "Locked customers as of "+asOf.Format(time.DateOnly)); err != nil {
		return err
	}
	for i, h := range reportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(reportSheet, cell, h); err != nil {
			return err
		}
	}

	for i, c := range customers {
		row := i + 4
		var days any
		if c.DaysOverdue != nil {
			days = *c.DaysOverdue
		}
		values := []any{c.Code, c.Name, c.Status.Label(), days, c.AccountManagerEmail}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(reportSheet, cell, v); err != nil {
				return fmt.Errorf("lock: report cell %s: %w", cell, err)
			}
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "E", 22); err != nil {
		return err
	}
	return f.Write(w)
}
