package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeCustomerCreated  = "CUSTOMER_CREATED"
	EventTypeOrderCreated     = "ORDER_CREATED"
	EventTypeInvoiceGenerated = "INVOICE_GENERATED"
	EventTypeInvoicePaid      = "INVOICE_PAID"
	EventTypeInvoiceCancelled = "INVOICE_CANCELLED"
	EventTypeInvoiceOverdue   = "INVOICE_OVERDUE"
)

// Event is an immutable fact record describing a committed state transition.
// Aggregate operations return events alongside their new state; nothing is
// published until the owning transaction has committed.
type Event interface {
	Type() string
	Key() string
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) Type() string { return e.EventType }

func newBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// CustomerCreatedEvent published when a customer is created
type CustomerCreatedEvent struct {
	BaseEvent
	CustomerID     uuid.UUID       `json:"customer_id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	UserID         string          `json:"user_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e CustomerCreatedEvent) Key() string { return "customer-" + e.CustomerID.String() }

// OrderItemSnapshot captures an item as it was at order creation
type OrderItemSnapshot struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Product    string          `json:"product"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// OrderCreatedEvent published when an order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     uuid.UUID           `json:"order_id"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	OrderDate   time.Time           `json:"order_date"`
	Status      OrderStatus         `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Items       []OrderItemSnapshot `json:"items"`
}

func (e OrderCreatedEvent) Key() string { return "order-" + e.OrderID.String() }

// InvoiceGeneratedEvent published when an invoice is generated for an order
type InvoiceGeneratedEvent struct {
	BaseEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"due_date"`
}

func (e InvoiceGeneratedEvent) Key() string { return "invoice-" + e.InvoiceID.String() }

// InvoicePaidEvent published after a payment transaction commits
type InvoicePaidEvent struct {
	BaseEvent
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	OrderID            uuid.UUID       `json:"order_id"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	CustomerNewBalance decimal.Decimal `json:"customer_new_balance"`
	NewStatus          InvoiceStatus   `json:"new_status"`
}

func (e InvoicePaidEvent) Key() string { return "invoice-" + e.InvoiceID.String() }

// InvoiceCancelledEvent published when an invoice is cancelled
type InvoiceCancelledEvent struct {
	BaseEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	OrderID   uuid.UUID `json:"order_id"`
}

func (e InvoiceCancelledEvent) Key() string { return "invoice-" + e.InvoiceID.String() }

// InvoiceOverdueEvent published when a pending invoice passes its due date
type InvoiceOverdueEvent struct {
	BaseEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	OrderID   uuid.UUID `json:"order_id"`
	DueDate   time.Time `json:"due_date"`
}

func (e InvoiceOverdueEvent) Key() string { return "invoice-" + e.InvoiceID.String() }
