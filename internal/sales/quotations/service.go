package quotations

import (
	"context"
	"fmt"
	"time"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
)

var (
	ErrInvalidStatus = fmt.Errorf("only draft quotations can be changed: %w", httpx.ErrUnprocessable)
	ErrInvalidDates  = &httpx.ValidationError{Details: map[string]string{"valid_until": "gtefield"}}
)

type Service struct {
	repo  Repository
	locks shared.LockGuard
}

func NewService(repo Repository, locks shared.LockGuard) *Service {
	return &Service{repo: repo, locks: locks}
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, &httpx.ValidationError{Details: map[string]string{field: "datetime"}}
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	if err := s.locks.ValidateCustomerNotLocked(ctx, Doctype, req.CustomerID); err != nil {
		return nil, err
	}
	quoteDate, err := parseDate("quote_date", req.QuoteDate)
	if err != nil {
		return nil, err
	}
	validUntil := quoteDate.Add(DefaultValidity)
	if req.ValidUntil != "" {
		if validUntil, err = parseDate("valid_until", req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if validUntil.Before(quoteDate) {
		return nil, ErrInvalidDates
	}
	lines, total, err := shared.BuildLines(req.Lines)
	if err != nil {
		return nil, err
	}

	quote := Quotation{
		CompanyID:   req.CompanyID,
		CustomerID:  req.CustomerID,
		QuoteDate:   quoteDate,
		ValidUntil:  validUntil,
		Status:      QuotationStatusDraft,
		Currency:    req.Currency,
		TotalAmount: total,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
		Lines:       lines,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		quote.DocNumber = number
		id, err = repo.Create(ctx, quote)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update changes a draft quotation. The customer lock is checked on every save.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != QuotationStatusDraft {
		return nil, ErrInvalidStatus
	}

	updated := *existing
	if req.CustomerID != nil {
		updated.CustomerID = *req.CustomerID
	}
	if err := s.locks.ValidateCustomerNotLocked(ctx, Doctype, updated.CustomerID); err != nil {
		return nil, err
	}
	if req.QuoteDate != nil {
		if updated.QuoteDate, err = parseDate("quote_date", *req.QuoteDate); err != nil {
			return nil, err
		}
	}
	if req.ValidUntil != nil {
		if updated.ValidUntil, err = parseDate("valid_until", *req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if updated.ValidUntil.Before(updated.QuoteDate) {
		return nil, ErrInvalidDates
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	if req.Lines != nil {
		if updated.Lines, updated.TotalAmount, err = shared.BuildLines(*req.Lines); err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, updated); err != nil {
			return err
		}
		if req.Lines == nil {
			return nil
		}
		return repo.ReplaceLines(ctx, id, updated.Lines)
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}
