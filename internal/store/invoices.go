package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"order-management/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, order_id, amount, due_date, status, created_at, version`

// GetInvoiceByID retrieves an invoice by ID
func (q *queries) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := sqlx.GetContext(ctx, q.ext, &invoice,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %s: %w", id, err)
	}
	return &invoice, nil
}

// GetInvoiceForPayment loads the invoice together with its order, the order's
// items and the owning customer, versions included. The payment transaction
// starts from this one consistent read.
func (q *queries) GetInvoiceForPayment(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	invoice, err := q.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	order, err := q.GetOrderByID(ctx, invoice.OrderID)
	if err != nil {
		return nil, err
	}

	customer, err := q.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}

	order.Customer = customer
	invoice.Order = order
	return invoice, nil
}

// InsertInvoice creates an invoice row.
func (q *queries) InsertInvoice(ctx context.Context, invoice domain.Invoice) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO invoices (id, order_id, amount, due_date, status, created_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		invoice.ID, invoice.OrderID, invoice.Amount, invoice.DueDate,
		invoice.Status, invoice.CreatedAt, invoice.Version)
	if err != nil {
		return fmt.Errorf("failed to insert invoice %s: %w", invoice.ID, err)
	}
	return nil
}

// UpdateInvoice writes the invoice's new status under the optimistic-version
// guard. Amount and due date are fixed at generation.
func (q *queries) UpdateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE invoices SET status = $1, version = version + 1 WHERE id = $2 AND version = $3`,
		invoice.Status, invoice.ID, invoice.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice %s: %w", invoice.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrConcurrencyConflict
	}

	invoice.Version++
	return &invoice, nil
}

// ListDueInvoices returns pending invoices whose due date has passed.
func (q *queries) ListDueInvoices(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := sqlx.SelectContext(ctx, q.ext, &invoices,
		`SELECT `+invoiceColumns+` FROM invoices WHERE status = $1 AND due_date < $2 ORDER BY due_date`,
		domain.InvoiceStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due invoices: %w", err)
	}
	return invoices, nil
}
