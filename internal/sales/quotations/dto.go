package quotations

import "github.com/garystarr-surgi/invoice-lock/internal/sales/shared"

type CreateQuotationRequest struct {
	CompanyID  int64                `json:"company_id" validate:"required,gt=0"`
	CustomerID int64                `json:"customer_id" validate:"required,gt=0"`
	QuoteDate  string               `json:"quote_date" validate:"required,datetime=2006-01-02"`
	ValidUntil string               `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency   string               `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Notes      *string              `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines      []shared.LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	CustomerID *int64                `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	QuoteDate  *string               `json:"quote_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil *string               `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes      *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines      *[]shared.LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}
