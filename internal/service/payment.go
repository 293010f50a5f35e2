package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-management/internal/domain"
	"order-management/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyStore remembers command keys that already completed.
type IdempotencyStore interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// PayInvoiceCommand requests payment of one invoice.
type PayInvoiceCommand struct {
	InvoiceID      uuid.UUID `json:"invoice_id"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

// PaymentCoordinator turns the pure payment operation into one durable unit of
// work: it loads the invoice with its order and customer inside a transaction,
// authorizes the caller, applies Invoice.ProcessPayment, persists all three
// aggregates under their version guards and publishes events only after commit.
// A stale version fails the whole transaction with ErrConcurrencyConflict; the
// caller retries from a fresh read. The coordinator never retries on its own,
// so authorization is never re-run against stale data.
type PaymentCoordinator struct {
	store  domain.Store
	events domain.EventSink
	idem   IdempotencyStore
	logger *zap.Logger
}

// NewPaymentCoordinator creates a new payment coordinator. idem may be nil to
// disable idempotency-key tracking.
func NewPaymentCoordinator(store domain.Store, events domain.EventSink, idem IdempotencyStore) *PaymentCoordinator {
	return &PaymentCoordinator{
		store:  store,
		events: events,
		idem:   idem,
		logger: util.GetLogger(),
	}
}

// PayInvoice settles an invoice against the owning customer's wallet. On
// success the paid invoice is returned carrying the processed order and the
// debited customer. Failure at any step rolls back all three writes; a
// partially applied payment is never observable.
func (pc *PaymentCoordinator) PayInvoice(ctx context.Context, cmd PayInvoiceCommand, principal domain.Principal) (*domain.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "PaymentCoordinator.PayInvoice")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	if cmd.IdempotencyKey != "" && pc.idem != nil {
		seen, err := pc.idem.CheckIdempotencyKey(ctx, cmd.IdempotencyKey)
		if err != nil {
			pc.logger.Warn("Idempotency check failed, proceeding", zap.Error(err))
		} else if seen {
			pc.logger.Info("Duplicate payment request detected",
				zap.String("idempotency_key", cmd.IdempotencyKey),
				zap.String("invoice_id", cmd.InvoiceID.String()))
			return pc.store.GetInvoiceForPayment(ctx, cmd.InvoiceID)
		}
	}

	var (
		paid  *domain.Invoice
		event domain.InvoicePaidEvent
	)

	err := pc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		invoice, err := tx.GetInvoiceForPayment(ctx, cmd.InvoiceID)
		if err != nil {
			return err
		}

		customer := invoice.Order.Customer
		if !principal.IsAdmin() && customer.UserID != principal.UserID {
			return fmt.Errorf("%w: you can only pay your own invoices", domain.ErrForbidden)
		}

		processed, paidEvent, err := invoice.ProcessPayment(*customer)
		if err != nil {
			return err
		}

		savedCustomer, err := tx.UpdateCustomer(ctx, *processed.Order.Customer)
		if err != nil {
			return err
		}
		savedOrder, err := tx.UpdateOrder(ctx, *processed.Order)
		if err != nil {
			return err
		}
		savedInvoice, err := tx.UpdateInvoice(ctx, processed)
		if err != nil {
			return err
		}

		savedOrder.Customer = savedCustomer
		savedInvoice.Order = savedOrder
		paid = savedInvoice
		event = paidEvent
		return nil
	})
	if err != nil {
		pc.recordFailure(cmd.InvoiceID, err)
		return nil, err
	}

	// Durability first: events become visible only after the commit above.
	if err := pc.events.Publish(ctx, event); err != nil {
		pc.logger.Error("Failed to publish InvoicePaid event",
			zap.String("invoice_id", cmd.InvoiceID.String()),
			zap.Error(err))
	}

	if cmd.IdempotencyKey != "" && pc.idem != nil {
		if err := pc.idem.SetIdempotencyKey(ctx, cmd.IdempotencyKey, cmd.InvoiceID.String(), 24*time.Hour); err != nil {
			pc.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	util.PaymentSuccessTotal.Inc()
	pc.logger.Info("Invoice paid",
		zap.String("invoice_id", paid.ID.String()),
		zap.String("order_id", paid.OrderID.String()),
		zap.String("amount", paid.Amount.String()),
		zap.String("new_balance", paid.Order.Customer.WalletBalance.String()))

	return paid, nil
}

func (pc *PaymentCoordinator) recordFailure(invoiceID uuid.UUID, err error) {
	reason := failureReason(err)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		util.PaymentConflictsTotal.Inc()
	}
	util.PaymentFailedTotal.WithLabelValues(reason).Inc()

	pc.logger.Warn("Payment failed",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("reason", reason),
		zap.Error(err))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return "invalid_status"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}
