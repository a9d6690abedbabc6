package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// PGRepository stores lock state on the customers table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const customerLockSelect = `SELECT c.id, c.code, c.name, COALESCE(u.email, ''),
	c.account_locked, COALESCE(c.account_lock_status, ''), c.account_lock_days_overdue
FROM customers c
LEFT JOIN users u ON u.id = c.account_manager_id AND u.is_active`

func scanCustomerLock(row pgx.Row) (CustomerLock, error) {
	var (
		c      CustomerLock
		status string
	)
	if err := row.Scan(&c.CustomerID, &c.Code, &c.Name, &c.AccountManagerEmail, &c.Locked, &status, &c.DaysOverdue); err != nil {
		return CustomerLock{}, err
	}
	c.Status = Tier(status)
	return c, nil
}

// GetCustomerLock loads the lock state of one customer.
func (r *PGRepository) GetCustomerLock(ctx context.Context, customerID int64) (CustomerLock, error) {
	c, err := scanCustomerLock(r.pool.QueryRow(ctx, customerLockSelect+` WHERE c.id = $1`, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustomerLock{}, ErrCustomerNotFound
		}
		return CustomerLock{}, err
	}
	return c, nil
}

// ApplyLock reads the customer row with FOR UPDATE, passes it to decide and,
// when the transition needs saving, writes the new lock state and its audit
// entry in the same transaction.
func (r *PGRepository) ApplyLock(ctx context.Context, runID string, customerID int64, decide func(CustomerLock) Transition) (Transition, error) {
	var t Transition
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanCustomerLock(tx.QueryRow(ctx, customerLockSelect+` WHERE c.id = $1 FOR UPDATE OF c`, customerID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return err
		}
		t = decide(current)
		if !t.NeedsSave {
			return nil
		}
		return saveLock(ctx, tx, runID, t)
	})
	if err != nil {
		return Transition{}, err
	}
	return t, nil
}

func saveLock(ctx context.Context, tx pgx.Tx, runID string, t Transition) error {
	tag, err := tx.Exec(ctx, `UPDATE customers
SET account_locked = TRUE, account_lock_status = $2, account_lock_days_overdue = $3, updated_at = NOW()
WHERE id = $1`, t.Next.CustomerID, string(t.Next.Status), t.Next.DaysOverdue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	meta := map[string]any{
		"run_id":       runID,
		"status":       string(t.Next.Status),
		"days_overdue": t.Decision.DaysOverdue,
		"invoice":      t.Decision.Invoice.Number,
		"was_locked":   t.Previous.Locked,
	}
	if t.Previous.Status != TierNone {
		meta["previous_status"] = string(t.Previous.Status)
	}
	action := "customer.lock.refresh"
	if t.StatusChanged {
		action = "customer.lock"
	}
	if err := shared.NewAuditLogger(tx).Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "customer",
		EntityID: strconv.FormatInt(t.Next.CustomerID, 10),
		Meta:     meta,
	}); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// ListLocked returns locked customers ordered by days overdue, highest first.
func (r *PGRepository) ListLocked(ctx context.Context) ([]CustomerLock, error) {
	rows, err := r.pool.Query(ctx, customerLockSelect+`
WHERE c.account_locked
ORDER BY c.account_lock_days_overdue DESC NULLS LAST, c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerLock
	for rows.Next() {
		c, err := scanCustomerLock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
