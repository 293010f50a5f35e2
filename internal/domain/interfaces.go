package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides durable aggregate access. Updates are guarded by the
// aggregate's version: a write whose loaded version no longer matches durable
// state fails with ErrConcurrencyConflict and affects nothing.
type Repository interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetCustomerByUserID(ctx context.Context, userID string) (*Customer, error)
	InsertCustomer(ctx context.Context, customer Customer) error
	UpdateCustomer(ctx context.Context, customer Customer) (*Customer, error)

	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	InsertOrder(ctx context.Context, order Order) error
	UpdateOrder(ctx context.Context, order Order) (*Order, error)

	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// GetInvoiceForPayment loads the invoice together with its order, the
	// order's items and the owning customer, versions included.
	GetInvoiceForPayment(ctx context.Context, id uuid.UUID) (*Invoice, error)
	InsertInvoice(ctx context.Context, invoice Invoice) error
	UpdateInvoice(ctx context.Context, invoice Invoice) (*Invoice, error)

	ListDueInvoices(ctx context.Context, now time.Time) ([]*Invoice, error)
}

// Store is a Repository that can also scope work to one atomic transaction.
type Store interface {
	Repository

	// WithinTx runs fn against a transaction-scoped Repository. Any error from
	// fn rolls the whole transaction back; otherwise it commits.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}

// EventSink receives committed domain events. Publication happens strictly
// after commit; a publish failure never rolls back the write that produced it.
type EventSink interface {
	Publish(ctx context.Context, events ...Event) error
}

// Principal describes the acting caller, supplied by the boundary layer.
type Principal struct {
	UserID string
	Admin  bool
}

// IsAdmin reports whether the principal holds elevated privilege.
func (p Principal) IsAdmin() bool { return p.Admin }
