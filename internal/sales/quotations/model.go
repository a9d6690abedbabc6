package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
)

type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "DRAFT"
	QuotationStatusSubmitted QuotationStatus = "SUBMITTED"
	QuotationStatusApproved  QuotationStatus = "APPROVED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
)

// Doctype names quotations in lock messages.
const Doctype = "Quotation"

// DefaultValidity applies when a quotation is created without valid_until.
const DefaultValidity = 30 * 24 * time.Hour

type Quotation struct {
	ID           int64           `json:"id"`
	DocNumber    string          `json:"doc_number"`
	CompanyID    int64           `json:"company_id"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	QuoteDate    time.Time       `json:"quote_date"`
	ValidUntil   time.Time       `json:"valid_until"`
	Status       QuotationStatus `json:"status"`
	Currency     string          `json:"currency"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedBy    int64           `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Lines        []shared.Line   `json:"lines"`
}
