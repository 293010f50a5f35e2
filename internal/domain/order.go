package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusProcessed OrderStatus = "PROCESSED"
)

// OrderItem is a line item on an order. Its total price is always derived.
type OrderItem struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OrderID   uuid.UUID       `db:"order_id" json:"order_id"`
	Product   string          `db:"product" json:"product"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

// NewOrderItem validates and creates a line item.
func NewOrderItem(id, orderID uuid.UUID, product string, unitPrice decimal.Decimal, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}
	if !unitPrice.IsPositive() {
		return OrderItem{}, ErrInvalidUnitPrice
	}
	return OrderItem{
		ID:        id,
		OrderID:   orderID,
		Product:   product,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}, nil
}

// TotalPrice returns unit price times quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order owns a set of line items fixed at creation. The monetary total is
// derived from the items and never stored.
type Order struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	CustomerID uuid.UUID   `db:"customer_id" json:"customer_id"`
	OrderDate  time.Time   `db:"order_date" json:"order_date"`
	Status     OrderStatus `db:"status" json:"status"`
	Items      []OrderItem `json:"items"`
	Customer   *Customer   `json:"customer,omitempty"`
	Version    int         `db:"version" json:"-"`
}

// NewOrder validates the items and creates a pending order. A zero orderDate
// defaults to the current time.
func NewOrder(id, customerID uuid.UUID, items []OrderItem, orderDate time.Time) (Order, OrderCreatedEvent, error) {
	if len(items) == 0 {
		return Order{}, OrderCreatedEvent{}, ErrEmptyOrder
	}

	owned := make([]OrderItem, len(items))
	for idx, item := range items {
		validated, err := NewOrderItem(item.ID, id, item.Product, item.UnitPrice, item.Quantity)
		if err != nil {
			return Order{}, OrderCreatedEvent{}, err
		}
		owned[idx] = validated
	}

	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	order := Order{
		ID:         id,
		CustomerID: customerID,
		OrderDate:  orderDate,
		Status:     OrderStatusPending,
		Items:      owned,
		Version:    1,
	}

	event := OrderCreatedEvent{
		BaseEvent:   newBaseEvent(EventTypeOrderCreated),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		OrderDate:   order.OrderDate,
		Status:      order.Status,
		TotalAmount: order.TotalAmount(),
		Items:       order.itemSnapshots(),
	}

	return order, event, nil
}

// TotalAmount returns the sum of the items' total prices.
func (o Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// WithStatus returns an order with the status replaced. Transition rules live
// in the payment workflow, the only caller that moves an order past Pending.
func (o Order) WithStatus(status OrderStatus) Order {
	o.Items = copyItems(o.Items)
	o.Status = status
	return o
}

// AddItem returns an order with the item appended.
func (o Order) AddItem(item OrderItem) (Order, error) {
	validated, err := NewOrderItem(item.ID, o.ID, item.Product, item.UnitPrice, item.Quantity)
	if err != nil {
		return Order{}, err
	}
	items := copyItems(o.Items)
	o.Items = append(items, validated)
	return o, nil
}

// RemoveItem returns an order with the item removed. The last item cannot be
// removed; an order always contains at least one.
func (o Order) RemoveItem(itemID uuid.UUID) (Order, error) {
	idx := -1
	for i, item := range o.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Order{}, ErrOrderItemNotFound
	}
	if len(o.Items) == 1 {
		return Order{}, ErrEmptyOrder
	}

	items := make([]OrderItem, 0, len(o.Items)-1)
	items = append(items, o.Items[:idx]...)
	items = append(items, o.Items[idx+1:]...)
	o.Items = items
	return o, nil
}

func (o Order) itemSnapshots() []OrderItemSnapshot {
	snapshots := make([]OrderItemSnapshot, len(o.Items))
	for i, item := range o.Items {
		snapshots[i] = OrderItemSnapshot{
			ItemID:     item.ID,
			Product:    item.Product,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			TotalPrice: item.TotalPrice(),
		}
	}
	return snapshots
}

func copyItems(items []OrderItem) []OrderItem {
	copied := make([]OrderItem, len(items))
	copy(copied, items)
	return copied
}
