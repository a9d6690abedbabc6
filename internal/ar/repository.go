package ar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("ar: not found")

// ErrInvalidState is returned when an invoice cannot move to the requested status.
var ErrInvalidState = errors.New("ar: invalid invoice state")

// Repository provides PostgreSQL backed persistence for AR.
type Repository struct {
	pool *pgxpool.Pool
	db   db.Querier
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

const invoiceColumns = `i.id, i.number, i.customer_id, c.name, i.company_id, i.currency,
	i.total::text, i.outstanding_amount::text, i.status, i.due_at, i.posted_at, i.created_at, i.updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv                Invoice
		total, outstanding string
		status             string
	)
	if err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.CompanyID, &inv.Currency,
		&total, &outstanding, &status, &inv.DueAt, &inv.PostedAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	var err error
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return Invoice{}, fmt.Errorf("ar: invoice %s total: %w", inv.Number, err)
	}
	if inv.Outstanding, err = decimal.NewFromString(outstanding); err != nil {
		return Invoice{}, fmt.Errorf("ar: invoice %s outstanding: %w", inv.Number, err)
	}
	inv.Status = InvoiceStatus(status)
	return inv, nil
}

// CreateInvoice inserts a draft invoice. The currency defaults to the company
// default currency.
func (r *Repository) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	number := input.Number
	if number == "" {
		var seq int64
		if err := r.db.QueryRow(ctx, `SELECT nextval('ar_invoice_number_seq')`).Scan(&seq); err != nil {
			return nil, err
		}
		number = fmt.Sprintf("INV-%06d", seq)
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO ar_invoices (number, customer_id, company_id, currency, total, outstanding_amount, status, due_at)
		SELECT $1, $2, co.id, COALESCE(NULLIF($4, ''), co.default_currency), $5::numeric, $5::numeric, 'DRAFT', $6
		FROM companies co WHERE co.id = $3
		RETURNING id`,
		number, input.CustomerID, input.CompanyID, input.Currency, input.Total.String(), input.DueAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %d: %w", input.CompanyID, ErrNotFound)
		}
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("ar: invoice number %s already used", number)
		}
		return nil, err
	}
	return r.GetInvoice(ctx, id)
}

// GetInvoice loads a single invoice.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+`
		FROM ar_invoices i JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// PostInvoice submits a draft invoice.
func (r *Repository) PostInvoice(ctx context.Context, id int64, postedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE ar_invoices SET status = 'POSTED', posted_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'DRAFT'`, id, postedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// ApplyPayment reduces the outstanding balance of a posted invoice, marking
// it PAID once nothing remains.
func (r *Repository) ApplyPayment(ctx context.Context, id int64, amount decimal.Decimal) (*Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var outstanding string
		var status string
		if err := tx.QueryRow(ctx, `SELECT outstanding_amount::text, status FROM ar_invoices WHERE id = $1 FOR UPDATE`, id).
			Scan(&outstanding, &status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if InvoiceStatus(status) != StatusPosted {
			return ErrInvalidState
		}
		current, err := decimal.NewFromString(outstanding)
		if err != nil {
			return err
		}
		remaining := current.Sub(amount)
		if remaining.IsNegative() {
			return fmt.Errorf("ar: payment %s exceeds outstanding %s", amount, current)
		}
		next := StatusPosted
		if remaining.IsZero() {
			next = StatusPaid
		}
		_, err = tx.Exec(ctx, `UPDATE ar_invoices SET outstanding_amount = $2::numeric, status = $3, updated_at = NOW() WHERE id = $1`,
			id, remaining.String(), string(next))
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetInvoice(ctx, id)
}

const listOverdueQuery = `
		SELECT i.number, i.customer_id, c.name, i.company_id, co.default_currency, i.outstanding_amount::text, i.due_at
		FROM ar_invoices i
		JOIN customers c ON c.id = i.customer_id
		JOIN companies co ON co.id = i.company_id
		WHERE i.status = 'POSTED'
		  AND i.outstanding_amount > 0
		  AND i.due_at < $1
		ORDER BY i.customer_id, i.due_at, i.number`

// ListOverdue returns posted invoices with an unpaid balance due strictly
// before cutoff, ordered by customer, due date and number. Currency is the
// owning company's default currency.
func (r *Repository) ListOverdue(ctx context.Context, cutoff time.Time) ([]OverdueInvoice, error) {
	rows, err := r.db.Query(ctx, listOverdueQuery, cutoff)
	if err != nil {
		return nil, fmt.Errorf("ar: list overdue: %w", err)
	}
	defer rows.Close()

	var out []OverdueInvoice
	for rows.Next() {
		var (
			inv         OverdueInvoice
			outstanding string
		)
		if err := rows.Scan(&inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.CompanyID, &inv.Currency, &outstanding, &inv.DueAt); err != nil {
			return nil, err
		}
		if inv.Outstanding, err = decimal.NewFromString(outstanding); err != nil {
			return nil, fmt.Errorf("ar: invoice %s outstanding: %w", inv.Number, err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ListOutstanding returns every posted invoice with an unpaid balance.
func (r *Repository) ListOutstanding(ctx context.Context) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+`
		FROM ar_invoices i JOIN customers c ON c.id = i.customer_id
		WHERE i.status = 'POSTED' AND i.outstanding_amount > 0
		ORDER BY i.due_at, i.number`)
	if err != nil {
		return nil, fmt.Errorf("ar: list outstanding: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
