package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
)

var ErrInvalidStatus = fmt.Errorf("only draft sales orders can be changed: %w", httpx.ErrUnprocessable)

type Service struct {
	repo  Repository
	locks shared.LockGuard
}

func NewService(repo Repository, locks shared.LockGuard) *Service {
	return &Service{repo: repo, locks: locks}
}

func (s *Service) Create(ctx context.Context, req CreateSalesOrderRequest, createdBy int64) (*SalesOrder, error) {
	if err := s.locks.ValidateCustomerNotLocked(ctx, Doctype, req.CustomerID); err != nil {
		return nil, err
	}
	orderDate, err := time.Parse(time.DateOnly, req.OrderDate)
	if err != nil {
		return nil, &httpx.ValidationError{Details: map[string]string{"order_date": "datetime"}}
	}
	lines, total, err := shared.BuildLines(req.Lines)
	if err != nil {
		return nil, err
	}

	order := SalesOrder{
		CompanyID:   req.CompanyID,
		CustomerID:  req.CustomerID,
		OrderDate:   orderDate,
		Status:      SalesOrderStatusDraft,
		Currency:    req.Currency,
		TotalAmount: total,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
		Lines:       lines,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		order.DocNumber = number
		orderID, err = repo.Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	return s.repo.Get(ctx, orderID)
}

// Update changes a draft order. The customer lock is checked on every save.
func (s *Service) Update(ctx context.Context, id int64, req UpdateSalesOrderRequest) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != SalesOrderStatusDraft {
		return nil, ErrInvalidStatus
	}

	updated := *existing
	if req.CustomerID != nil {
		updated.CustomerID = *req.CustomerID
	}
	if err := s.locks.ValidateCustomerNotLocked(ctx, Doctype, updated.CustomerID); err != nil {
		return nil, err
	}
	if req.OrderDate != nil {
		if updated.OrderDate, err = time.Parse(time.DateOnly, *req.OrderDate); err != nil {
			return nil, &httpx.ValidationError{Details: map[string]string{"order_date": "datetime"}}
		}
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
		return nil, fmt.Errorf("update sales order %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, id)
}
