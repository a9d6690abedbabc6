package quotations

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

var ErrNotFound = fmt.Errorf("quotation: %w", httpx.ErrNotFound)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	Create(ctx context.Context, quote Quotation) (int64, error)
	Update(ctx context.Context, quote Quotation) error
	ReplaceLines(ctx context.Context, quotationID int64, lines []shared.Line) error
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

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	var (
		q      Quotation
		total  string
		status string
	)
	err := r.db.QueryRow(ctx, `SELECT q.id, q.doc_number, q.company_id, q.customer_id, c.name, q.quote_date, q.valid_until,
	q.status, q.currency, q.total_amount::text, q.notes, COALESCE(q.created_by, 0), q.created_at, q.updated_at
FROM quotations q
JOIN customers c ON c.id = q.customer_id
WHERE q.id = $1`, id).Scan(&q.ID, &q.DocNumber, &q.CompanyID, &q.CustomerID, &q.CustomerName, &q.QuoteDate, &q.ValidUntil,
		&status, &q.Currency, &total, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	q.Status = QuotationStatus(status)
	if q.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("quotation %s total: %w", q.DocNumber, err)
	}
	if q.Lines, err = shared.QuotationLines.LoadLines(ctx, r.db, id); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO quotations
	(doc_number, company_id, customer_id, quote_date, valid_until, currency, total_amount, status, notes, created_by)
SELECT $1, co.id, $3, $4, $5, COALESCE(NULLIF($6, ''), co.default_currency), $7::numeric, $8, $9, NULLIF($10::bigint, 0)
FROM companies co WHERE co.id = $2
RETURNING id`,
		q.DocNumber, q.CompanyID, q.CustomerID, q.QuoteDate, q.ValidUntil, q.Currency, q.TotalAmount.String(),
		string(q.Status), q.Notes, q.CreatedBy,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("company %d: %w", q.CompanyID, httpx.ErrNotFound)
		}
		return 0, err
	}
	if err := shared.QuotationLines.ReplaceLines(ctx, r.db, id, q.Lines); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, q Quotation) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotations
SET customer_id = $2, quote_date = $3, valid_until = $4, total_amount = $5::numeric, notes = $6, updated_at = NOW()
WHERE id = $1`, q.ID, q.CustomerID, q.QuoteDate, q.ValidUntil, q.TotalAmount.String(), q.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, quotationID int64, lines []shared.Line) error {
	return shared.QuotationLines.ReplaceLines(ctx, r.db, quotationID, lines)
}

func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('quotation_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("QT-%06d", seq), nil
}
