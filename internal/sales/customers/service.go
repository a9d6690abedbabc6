package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// Actor is the user saving a customer.
type Actor interface {
	lock.Unlocker
	GetID() int64
}

// LockStatus serves and invalidates cached customer lock state.
type LockStatus interface {
	Status(ctx context.Context, customerID int64) (lock.Status, error)
	InvalidateStatus(ctx context.Context, customerIDs ...int64) error
}

type Service struct {
	repo   Repository
	locks  LockStatus
	logger *slog.Logger
}

func NewService(repo Repository, locks LockStatus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, locks: locks, logger: logger}
}

func (s *Service) Create(ctx context.Context, actor Actor, req CreateCustomerRequest) (*Customer, error) {
	customer := Customer{
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		Email:            req.Email,
		AccountManagerID: req.AccountManagerID,
		IsActive:         true,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, customer)
		if err != nil {
			return err
		}
		customer.ID = id
		return repo.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actor.GetID(),
			Action:   "customer.create",
			Entity:   "customer",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"code": customer.Code},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, customer.ID)
}

// Update applies req and runs the customer save hooks: the unlock permission
// check first, then the lock metadata sync.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, req UpdateCustomerRequest) (*Customer, error) {
	var lockChanged bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		updated := *existing
		applyUpdate(&updated, req)

		before := existing.LockState()
		after := updated.LockState()
		if err := lock.EnforceUnlockPermissions(actor, &before, &after); err != nil {
			return err
		}
		lock.SyncLockMetadata(&after)
		updated.setLockState(after)

		if err := repo.Update(ctx, updated); err != nil {
			return err
		}
		lockChanged = before.Locked != after.Locked
		if !lockChanged {
			return nil
		}
		action := "customer.unlock"
		meta := map[string]any{}
		if after.Locked {
			action = "customer.lock.manual"
		} else {
			meta["previous_status"] = before.Status.Label()
			if before.DaysOverdue != nil {
				meta["days_overdue"] = *before.DaysOverdue
			}
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actor.GetID(),
			Action:   action,
			Entity:   "customer",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     meta,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}

	if lockChanged && s.locks != nil {
		if err := s.locks.InvalidateStatus(ctx, id); err != nil {
			s.logger.Warn("invalidate lock status", slog.Int64("customer_id", id), slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, id)
}

func applyUpdate(c *Customer, req UpdateCustomerRequest) {
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.AccountManagerID != nil {
		c.AccountManagerID = req.AccountManagerID
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.AccountLocked != nil {
		c.AccountLocked = *req.AccountLocked
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// LockStatus returns the cached lock state used by clients before saving a
// sales document.
func (s *Service) LockStatus(ctx context.Context, id int64) (lock.Status, error) {
	if s.locks == nil {
		c, err := s.repo.Get(ctx, id)
		if err != nil {
			return lock.Status{}, err
		}
		return lock.Status{Locked: c.AccountLocked}, nil
	}
	return s.locks.Status(ctx, id)
}
