package shared

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
)

// LineTable names the line table of a document type and its parent column.
type LineTable struct {
	Table  string
	Parent string
}

var (
	SalesOrderLines = LineTable{Table: "sales_order_lines", Parent: "sales_order_id"}
	QuotationLines  = LineTable{Table: "quotation_lines", Parent: "quotation_id"}
)

// ReplaceLines deletes the lines of parentID and inserts lines in order.
func (t LineTable) ReplaceLines(ctx context.Context, q db.Querier, parentID int64, lines []Line) error {
	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.Parent), parentID); err != nil {
		return err
	}
	insert := fmt.Sprintf(`INSERT INTO %s (%s, description, quantity, unit_price, discount_percent, tax_percent, line_total, line_order)
VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8)`, t.Table, t.Parent)
	for _, l := range lines {
		if _, err := q.Exec(ctx, insert, parentID, l.Description, l.Quantity.String(), l.UnitPrice.String(),
			l.DiscountPercent.String(), l.TaxPercent.String(), l.LineTotal.String(), l.LineOrder); err != nil {
			return err
		}
	}
	return nil
}

// LoadLines returns the lines of parentID ordered by line order.
func (t LineTable) LoadLines(ctx context.Context, q db.Querier, parentID int64) ([]Line, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT id, description, quantity::text, unit_price::text,
	discount_percent::text, tax_percent::text, line_total::text, line_order
FROM %s WHERE %s = $1 ORDER BY line_order, id`, t.Table, t.Parent), parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		var qty, price, discount, tax, lineTotal string
		if err := rows.Scan(&l.ID, &l.Description, &qty, &price, &discount, &tax, &lineTotal, &l.LineOrder); err != nil {
			return nil, err
		}
		values := []*decimal.Decimal{&l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.TaxPercent, &l.LineTotal}
		for i, raw := range []string{qty, price, discount, tax, lineTotal} {
			if *values[i], err = decimal.NewFromString(raw); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", t.Table, l.ID, err)
			}
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
