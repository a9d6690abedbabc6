package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("customer: %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("customer code: %w", httpx.ErrDuplicate)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Customer, error)
	// GetForUpdate locks the customer row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, customer Customer) error
	RecordAudit(ctx context.Context, entry shared.AuditLog) error
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const customerSelect = `SELECT c.id, c.code, c.name, c.email, c.account_manager_id, COALESCE(u.email, ''),
	c.is_active, c.account_locked, COALESCE(c.account_lock_status, ''), c.account_lock_days_overdue,
	c.created_at, c.updated_at
FROM customers c
LEFT JOIN users u ON u.id = c.account_manager_id AND u.is_active`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.AccountManagerID, &c.AccountManagerEmail,
		&c.IsActive, &c.AccountLocked, &c.AccountLockStatus, &c.AccountLockDaysOverdue,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, customerSelect+` WHERE c.id = $1`, id))
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, customerSelect+` WHERE c.id = $1 FOR UPDATE OF c`, id))
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Locked != nil {
		conditions = append(conditions, fmt.Sprintf("c.account_locked = $%d", argPos))
		args = append(args, *req.Locked)
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.code ILIKE $%d OR c.name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers c"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := customerSelect + whereClause + fmt.Sprintf(" ORDER BY c.code LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, customer Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO customers (code, name, email, account_manager_id, is_active)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		customer.Code, customer.Name, customer.Email, customer.AccountManagerID, customer.IsActive,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	var status *string
	if c.AccountLockStatus != "" {
		status = &c.AccountLockStatus
	}
	tag, err := r.db.Exec(ctx, `UPDATE customers
SET name = $2, email = $3, account_manager_id = $4, is_active = $5,
    account_locked = $6, account_lock_status = $7, account_lock_days_overdue = $8,
    updated_at = NOW()
WHERE id = $1`,
		c.ID, c.Name, c.Email, c.AccountManagerID, c.IsActive,
		c.AccountLocked, status, c.AccountLockDaysOverdue,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) RecordAudit(ctx context.Context, entry shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, entry)
}
