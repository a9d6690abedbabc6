// Package shared holds the line arithmetic and lock check common to sales
// orders and quotations.
package shared

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
)

var hundred = decimal.NewFromInt(100)

// LockGuard refuses documents for locked customers.
type LockGuard interface {
	ValidateCustomerNotLocked(ctx context.Context, doctype string, customerID int64) error
}

// LineRequest is one document line as submitted by clients.
type LineRequest struct {
	Description     string          `json:"description" validate:"required,max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// Line is a priced document line.
type Line struct {
	ID              int64           `json:"id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
	LineOrder       int             `json:"line_order"`
}

func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent decimal.Decimal) (discountAmount, taxAmount, lineTotal decimal.Decimal) {
	grossAmount := quantity.Mul(unitPrice)
	discountAmount = grossAmount.Mul(discountPercent).Div(hundred)
	netAmount := grossAmount.Sub(discountAmount)
	taxAmount = netAmount.Mul(taxPercent).Div(hundred)
	lineTotal = netAmount.Add(taxAmount).Round(2)
	return
}

// BuildLines validates and prices reqs, returning the lines and the document
// total.
func BuildLines(reqs []LineRequest) ([]Line, decimal.Decimal, error) {
	details := map[string]string{}
	lines := make([]Line, 0, len(reqs))
	total := decimal.Zero
	for i, req := range reqs {
		field := fmt.Sprintf("lines[%d]", i)
		switch {
		case !req.Quantity.IsPositive():
			details[field+".quantity"] = "gt"
		case req.UnitPrice.IsNegative():
			details[field+".unit_price"] = "gte"
		case req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred):
			details[field+".discount_percent"] = "range"
		case req.TaxPercent.IsNegative() || req.TaxPercent.GreaterThan(hundred):
			details[field+".tax_percent"] = "range"
		}
		_, _, lineTotal := CalculateLineTotals(req.Quantity, req.UnitPrice, req.DiscountPercent, req.TaxPercent)
		lines = append(lines, Line{
			Description:     req.Description,
			Quantity:        req.Quantity,
			UnitPrice:       req.UnitPrice,
			DiscountPercent: req.DiscountPercent,
			TaxPercent:      req.TaxPercent,
			LineTotal:       lineTotal,
			LineOrder:       i + 1,
		})
		total = total.Add(lineTotal)
	}
	if len(details) > 0 {
		return nil, decimal.Zero, &httpx.ValidationError{Details: details}
	}
	return lines, total, nil
}
