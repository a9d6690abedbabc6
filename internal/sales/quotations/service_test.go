package quotations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
)

type memoryRepo struct {
	quotes map[int64]Quotation
	seq    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{quotes: make(map[int64]Quotation)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Quotation, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (r *memoryRepo) Create(_ context.Context, q Quotation) (int64, error) {
	q.ID = int64(len(r.quotes) + 1)
	r.quotes[q.ID] = q
	return q.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, q Quotation) error {
	r.quotes[q.ID] = q
	return nil
}

func (r *memoryRepo) ReplaceLines(_ context.Context, id int64, lines []shared.Line) error {
	q := r.quotes[id]
	q.Lines = lines
	r.quotes[id] = q
	return nil
}

func (r *memoryRepo) NextNumber(context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("QT-%06d", r.seq), nil
}

type softLockGuard struct{ customerID int64 }

func (g softLockGuard) ValidateCustomerNotLocked(_ context.Context, doctype string, customerID int64) error {
	if customerID != g.customerID {
		return nil
	}
	return &lock.LockedError{Doctype: doctype, Customer: "Bright Smiles", Status: "Soft Locked", DaysOverdue: 41}
}

func request(customerID int64) CreateQuotationRequest {
	return CreateQuotationRequest{
		CompanyID:  1,
		CustomerID: customerID,
		QuoteDate:  "2025-06-01",
		Lines: []shared.LineRequest{
			{Description: "Scanner rental", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(300)},
		},
	}
}

func TestCreateRefusesSoftLockedCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, softLockGuard{customerID: 4})

	_, err := svc.Create(context.Background(), request(4), 1)
	require.ErrorIs(t, err, lock.ErrCustomerLocked)
	require.ErrorIs(t, err, httpx.ErrUnprocessable)
	require.EqualError(t, err, "Cannot save Quotation. Customer Bright Smiles is Soft Locked due to invoices 41 days past due.")
	require.Empty(t, repo.quotes)
}

func TestCreateDefaultsValidity(t *testing.T) {
	svc := NewService(newMemoryRepo(), softLockGuard{customerID: 4})

	quote, err := svc.Create(context.Background(), request(5), 1)
	require.NoError(t, err)
	require.Equal(t, "QT-000001", quote.DocNumber)
	require.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), quote.ValidUntil)
	require.Equal(t, "300.00", quote.TotalAmount.StringFixed(2))
}

func TestCreateRejectsValidUntilBeforeQuoteDate(t *testing.T) {
	svc := NewService(newMemoryRepo(), softLockGuard{})
	req := request(5)
	req.ValidUntil = "2025-05-01"

	_, err := svc.Create(context.Background(), req, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateChecksLockAgain(t *testing.T) {
	repo := newMemoryRepo()
	guard := softLockGuard{customerID: 99}
	svc := NewService(repo, guard)
	quote, err := svc.Create(context.Background(), request(5), 1)
	require.NoError(t, err)

	// The customer became locked after the quotation was drafted.
	svc.locks = softLockGuard{customerID: 5}
	notes := "follow up"
	_, err = svc.Update(context.Background(), quote.ID, UpdateQuotationRequest{Notes: &notes})
	require.ErrorIs(t, err, lock.ErrCustomerLocked)
	require.Nil(t, repo.quotes[quote.ID].Notes)
}
