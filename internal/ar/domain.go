package ar

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates AR invoice statuses.
type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "DRAFT"
	StatusPosted InvoiceStatus = "POSTED"
	StatusPaid   InvoiceStatus = "PAID"
	StatusVoid   InvoiceStatus = "VOID"
)

// Invoice is a sales invoice owed by a customer. Only POSTED invoices count
// towards receivables.
type Invoice struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	CompanyID    int64           `json:"company_id"`
	Currency     string          `json:"currency"`
	Total        decimal.Decimal `json:"total"`
	Outstanding  decimal.Decimal `json:"outstanding_amount"`
	Status       InvoiceStatus   `json:"status"`
	DueAt        time.Time       `json:"due_at"`
	PostedAt     *time.Time      `json:"posted_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OverdueInvoice is a posted invoice with an unpaid balance past its due
// date. Currency is the company default currency.
type OverdueInvoice struct {
	Number       string          `json:"number"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	CompanyID    int64           `json:"company_id"`
	Currency     string          `json:"currency"`
	Outstanding  decimal.Decimal `json:"outstanding_amount"`
	DueAt        time.Time       `json:"due_at"`
}

// CreateInvoiceInput carries the fields of a new draft invoice.
type CreateInvoiceInput struct {
	Number     string          `json:"number"`
	CustomerID int64           `json:"customer_id" validate:"required,gt=0"`
	CompanyID  int64           `json:"company_id" validate:"required,gt=0"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	Total      decimal.Decimal `json:"total"`
	DueAt      time.Time       `json:"due_at" validate:"required"`
}

// PaymentInput records money received against an invoice.
type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
}

// AgingBucket summarises outstanding totals by days past due.
type AgingBucket struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"1_30"`
	Bucket60  decimal.Decimal `json:"31_60"`
	Bucket90  decimal.Decimal `json:"61_90"`
	Bucket120 decimal.Decimal `json:"90_plus"`
}
