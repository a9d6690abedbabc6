package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
)

type SalesOrderStatus string

const (
	SalesOrderStatusDraft     SalesOrderStatus = "DRAFT"
	SalesOrderStatusConfirmed SalesOrderStatus = "CONFIRMED"
	SalesOrderStatusCancelled SalesOrderStatus = "CANCELLED"
)

// Doctype names sales orders in lock messages.
const Doctype = "Sales Order"

type SalesOrder struct {
	ID           int64            `json:"id"`
	DocNumber    string           `json:"doc_number"`
	CompanyID    int64            `json:"company_id"`
	CustomerID   int64            `json:"customer_id"`
	CustomerName string           `json:"customer_name"`
	OrderDate    time.Time        `json:"order_date"`
	Status       SalesOrderStatus `json:"status"`
	Currency     string           `json:"currency"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Notes        *string          `json:"notes,omitempty"`
	CreatedBy    int64            `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Lines        []shared.Line    `json:"lines"`
}
