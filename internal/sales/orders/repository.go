package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
)

var ErrNotFound = fmt.Errorf("sales order: %w", httpx.ErrNotFound)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*SalesOrder, error)
	// Create inserts the order and its lines. An empty currency takes the
	// company default.
	Create(ctx context.Context, order SalesOrder) (int64, error)
	Update(ctx context.Context, order SalesOrder) error
	ReplaceLines(ctx context.Context, orderID int64, lines []shared.Line) error
	NextNumber(ctx context.Context) (string, error)
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

func (r *repository) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	var (
		o      SalesOrder
		total  string
		status string
	)
	err := r.db.QueryRow(ctx, `SELECT so.id, so.doc_number, so.company_id, so.customer_id, c.name, so.order_date,
	so.status, so.currency, so.total_amount::text, so.notes, COALESCE(so.created_by, 0), so.created_at, so.updated_at
FROM sales_orders so
JOIN customers c ON c.id = so.customer_id
WHERE so.id = $1`, id).Scan(&o.ID, &o.DocNumber, &o.CompanyID, &o.CustomerID, &o.CustomerName, &o.OrderDate,
		&status, &o.Currency, &total, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = SalesOrderStatus(status)
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("sales order %s total: %w", o.DocNumber, err)
	}
	if o.Lines, err = shared.SalesOrderLines.LoadLines(ctx, r.db, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) Create(ctx context.Context, o SalesOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO sales_orders
	(doc_number, company_id, customer_id, order_date, currency, total_amount, status, notes, created_by)
SELECT $1, co.id, $3, $4, COALESCE(NULLIF($5, ''), co.default_currency), $6::numeric, $7, $8, NULLIF($9::bigint, 0)
FROM companies co WHERE co.id = $2
RETURNING id`,
		o.DocNumber, o.CompanyID, o.CustomerID, o.OrderDate, o.Currency, o.TotalAmount.String(),
		string(o.Status), o.Notes, o.CreatedBy,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("company %d: %w", o.CompanyID, httpx.ErrNotFound)
		}
		return 0, err
	}
	if err := shared.SalesOrderLines.ReplaceLines(ctx, r.db, id, o.Lines); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, o SalesOrder) error {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders
SET customer_id = $2, order_date = $3, total_amount = $4::numeric, notes = $5, updated_at = NOW()
WHERE id = $1`, o.ID, o.CustomerID, o.OrderDate, o.TotalAmount.String(), o.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, orderID int64, lines []shared.Line) error {
	return shared.SalesOrderLines.ReplaceLines(ctx, r.db, orderID, lines)
}

func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('sales_order_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%06d", seq), nil
}
