package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses. Pending is the initial state; Paid and Cancelled are
// terminal, Overdue is reachable only from Pending after the due date.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice owns the billing lifecycle for an order. Amount is fixed at
// generation time and is not re-derived if the order is edited afterwards.
type Invoice struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OrderID   uuid.UUID       `db:"order_id" json:"order_id"`
	Order     *Order          `json:"order,omitempty"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	DueDate   time.Time       `db:"due_date" json:"due_date"`
	Status    InvoiceStatus   `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	Version   int             `db:"version" json:"-"`
}

// NewInvoice validates and creates a pending invoice for an order.
func NewInvoice(id uuid.UUID, order Order, amount decimal.Decimal, dueDate, now time.Time) (Invoice, InvoiceGeneratedEvent, error) {
	if !amount.IsPositive() {
		return Invoice{}, InvoiceGeneratedEvent{}, ErrInvalidAmount
	}
	if !dueDate.After(now) {
		return Invoice{}, InvoiceGeneratedEvent{}, ErrInvalidDueDate
	}

	invoice := Invoice{
		ID:        id,
		OrderID:   order.ID,
		Order:     &order,
		Amount:    amount,
		DueDate:   dueDate,
		Status:    InvoiceStatusPending,
		CreatedAt: now.UTC(),
		Version:   1,
	}

	event := InvoiceGeneratedEvent{
		BaseEvent: newBaseEvent(EventTypeInvoiceGenerated),
		InvoiceID: invoice.ID,
		OrderID:   invoice.OrderID,
		Amount:    invoice.Amount,
		DueDate:   invoice.DueDate,
	}

	return invoice, event, nil
}

// ProcessPayment settles the invoice against the customer's wallet. It is
// pure: no I/O happens here. On success it returns the paid invoice carrying
// the processed order, which carries the debited customer. The caller persists
// all three atomically before publishing the event.
func (inv Invoice) ProcessPayment(customer Customer) (Invoice, InvoicePaidEvent, error) {
	if inv.Status != InvoiceStatusPending {
		return Invoice{}, InvoicePaidEvent{}, &InvalidStatusTransitionError{Current: inv.Status}
	}
	if inv.Order == nil {
		return Invoice{}, InvoicePaidEvent{}, ErrOrderNotFound
	}

	paidCustomer, err := customer.DeductFunds(inv.Amount)
	if err != nil {
		return Invoice{}, InvoicePaidEvent{}, err
	}

	processedOrder := inv.Order.WithStatus(OrderStatusProcessed)
	processedOrder.Customer = &paidCustomer

	inv.Order = &processedOrder
	inv.Status = InvoiceStatusPaid

	event := InvoicePaidEvent{
		BaseEvent:          newBaseEvent(EventTypeInvoicePaid),
		InvoiceID:          inv.ID,
		OrderID:            inv.OrderID,
		AmountPaid:         inv.Amount,
		CustomerNewBalance: paidCustomer.WalletBalance,
		NewStatus:          inv.Status,
	}

	return inv, event, nil
}

// Cancel moves the invoice to Cancelled. Paid invoices cannot be cancelled.
func (inv Invoice) Cancel() (Invoice, InvoiceCancelledEvent, error) {
	if inv.Status == InvoiceStatusPaid {
		return Invoice{}, InvoiceCancelledEvent{}, &InvalidStatusTransitionError{Current: inv.Status}
	}

	inv.Status = InvoiceStatusCancelled

	event := InvoiceCancelledEvent{
		BaseEvent: newBaseEvent(EventTypeInvoiceCancelled),
		InvoiceID: inv.ID,
		OrderID:   inv.OrderID,
	}

	return inv, event, nil
}

// MarkOverdue moves a pending invoice past its due date to Overdue.
func (inv Invoice) MarkOverdue(now time.Time) (Invoice, InvoiceOverdueEvent, error) {
	if inv.Status != InvoiceStatusPending {
		return Invoice{}, InvoiceOverdueEvent{}, &InvalidStatusTransitionError{Current: inv.Status}
	}
	if !inv.DueDate.Before(now) {
		return Invoice{}, InvoiceOverdueEvent{}, ErrNotYetDue
	}

	inv.Status = InvoiceStatusOverdue

	event := InvoiceOverdueEvent{
		BaseEvent: newBaseEvent(EventTypeInvoiceOverdue),
		InvoiceID: inv.ID,
		OrderID:   inv.OrderID,
		DueDate:   inv.DueDate,
	}

	return inv, event, nil
}
