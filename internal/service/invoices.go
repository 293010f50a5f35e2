package service

import (
	"context"
	"fmt"
	"time"

	"order-management/internal/domain"
	"order-management/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService handles invoice generation and single-aggregate lifecycle
// transitions. The multi-aggregate payment path lives in PaymentCoordinator.
type InvoiceService struct {
	store  domain.Store
	events domain.EventSink
	logger *zap.Logger
	now    func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(store domain.Store, events domain.EventSink) *InvoiceService {
	return &InvoiceService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GenerateInvoiceCommand requests an invoice for an order.
type GenerateInvoiceCommand struct {
	OrderID uuid.UUID `json:"order_id"`
	DueDate time.Time `json:"due_date"`
}

// GenerateInvoice creates a pending invoice whose amount is the order's total
// at this moment. The amount stays fixed even if the order is edited later.
func (is *InvoiceService) GenerateInvoice(ctx context.Context, cmd GenerateInvoiceCommand, principal domain.Principal) (*domain.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.GenerateInvoice")
	defer span.End()

	order, err := is.store.GetOrderByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := is.authorizeOrderOwner(ctx, order, principal, "you can only invoice your own orders"); err != nil {
		return nil, err
	}

	invoice, event, err := domain.NewInvoice(uuid.New(), *order, order.TotalAmount(), cmd.DueDate, is.now())
	if err != nil {
		return nil, err
	}

	if err := is.store.InsertInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	if err := is.events.Publish(ctx, event); err != nil {
		is.logger.Error("Failed to publish InvoiceGenerated event", zap.Error(err))
	}

	util.InvoicesGeneratedTotal.Inc()
	is.logger.Info("Invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("order_id", invoice.OrderID.String()),
		zap.String("amount", invoice.Amount.String()))

	return &invoice, nil
}

// GetInvoice retrieves an invoice by ID
func (is *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return is.store.GetInvoiceByID(ctx, id)
}

// CancelInvoice moves an unpaid invoice to Cancelled.
func (is *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID, principal domain.Principal) (*domain.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.CancelInvoice")
	defer span.End()

	saved, err := is.transition(ctx, id, principal, "you can only cancel your own invoices",
		func(invoice domain.Invoice) (domain.Invoice, domain.Event, error) {
			cancelled, event, err := invoice.Cancel()
			return cancelled, event, err
		})
	if err != nil {
		return nil, err
	}

	util.InvoicesCancelledTotal.Inc()
	is.logger.Info("Invoice cancelled", zap.String("invoice_id", id.String()))
	return saved, nil
}

// MarkInvoiceOverdue moves a pending invoice past its due date to Overdue.
func (is *InvoiceService) MarkInvoiceOverdue(ctx context.Context, id uuid.UUID, principal domain.Principal) (*domain.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.MarkInvoiceOverdue")
	defer span.End()

	saved, err := is.transition(ctx, id, principal, "you can only manage your own invoices",
		func(invoice domain.Invoice) (domain.Invoice, domain.Event, error) {
			overdue, event, err := invoice.MarkOverdue(is.now())
			return overdue, event, err
		})
	if err != nil {
		return nil, err
	}

	util.InvoicesOverdueTotal.Inc()
	is.logger.Info("Invoice marked overdue", zap.String("invoice_id", id.String()))
	return saved, nil
}

// transition applies a single-invoice state change under the version guard and
// publishes its event after the write commits.
func (is *InvoiceService) transition(
	ctx context.Context,
	id uuid.UUID,
	principal domain.Principal,
	forbiddenMsg string,
	apply func(domain.Invoice) (domain.Invoice, domain.Event, error),
) (*domain.Invoice, error) {
	var (
		saved *domain.Invoice
		event domain.Event
	)

	err := is.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		invoice, err := tx.GetInvoiceForPayment(ctx, id)
		if err != nil {
			return err
		}

		customer := invoice.Order.Customer
		if !principal.IsAdmin() && customer.UserID != principal.UserID {
			return fmt.Errorf("%w: %s", domain.ErrForbidden, forbiddenMsg)
		}

		next, ev, err := apply(*invoice)
		if err != nil {
			return err
		}

		saved, err = tx.UpdateInvoice(ctx, next)
		if err != nil {
			return err
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := is.events.Publish(ctx, event); err != nil {
		is.logger.Error("Failed to publish invoice event",
			zap.String("invoice_id", id.String()),
			zap.Error(err))
	}

	return saved, nil
}

func (is *InvoiceService) authorizeOrderOwner(ctx context.Context, order *domain.Order, principal domain.Principal, msg string) error {
	if principal.IsAdmin() {
		return nil
	}

	customer, err := is.store.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}
	if customer.UserID != principal.UserID {
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	}
	return nil
}
