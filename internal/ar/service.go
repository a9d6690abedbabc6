package ar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
)

// RepositoryPort defines data access methods for AR.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	PostInvoice(ctx context.Context, id int64, postedAt time.Time) error
	ApplyPayment(ctx context.Context, id int64, amount decimal.Decimal) (*Invoice, error)
	ListOverdue(ctx context.Context, cutoff time.Time) ([]OverdueInvoice, error)
	ListOutstanding(ctx context.Context) ([]Invoice, error)
}

// Service handles AR business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInvoice validates and stores a draft invoice.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if input.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer ID required", httpx.ErrValidation)
	}
	if !input.Total.IsPositive() {
		return nil, fmt.Errorf("%w: total must be positive", httpx.ErrValidation)
	}
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	input.DueAt = DateOnly(input.DueAt)
	return s.repo.CreateInvoice(ctx, input)
}

// GetInvoice loads one invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// PostInvoice submits a draft invoice so it counts as receivable.
func (s *Service) PostInvoice(ctx context.Context, id int64) (*Invoice, error) {
	if err := s.repo.PostInvoice(ctx, id, s.now()); err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, id)
}

// RegisterPayment applies a payment to a posted invoice. Paying an invoice
// never unlocks its customer.
func (s *Service) RegisterPayment(ctx context.Context, id int64, input PaymentInput) (*Invoice, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	return s.repo.ApplyPayment(ctx, id, input.Amount)
}

// ListOverdue returns unpaid posted invoices due strictly before cutoff.
func (s *Service) ListOverdue(ctx context.Context, cutoff time.Time) ([]OverdueInvoice, error) {
	return s.repo.ListOverdue(ctx, DateOnly(cutoff))
}

// Aging groups outstanding balances by days past due as of asOf.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingBucket, error) {
	invoices, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return AgingBucket{}, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = DateOnly(asOf)
	var bucket AgingBucket
	for _, inv := range invoices {
		if inv.Status != StatusPosted {
			continue
		}
		days := int(asOf.Sub(DateOnly(inv.DueAt)).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(inv.Outstanding)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(inv.Outstanding)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(inv.Outstanding)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(inv.Outstanding)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(inv.Outstanding)
		}
	}
	return bucket, nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
