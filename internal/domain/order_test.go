package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(t *testing.T, orderID uuid.UUID, price int64, quantity int) OrderItem {
	t.Helper()
	item, err := NewOrderItem(uuid.New(), orderID, "widget", decimal.NewFromInt(price), quantity)
	require.NoError(t, err)
	return item
}

func TestNewOrderItem(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		item, err := NewOrderItem(uuid.New(), uuid.New(), "widget", decimal.NewFromInt(25), 4)
		require.NoError(t, err)
		assert.True(t, item.TotalPrice().Equal(decimal.NewFromInt(100)))
	})

	t.Run("Zero quantity", func(t *testing.T) {
		_, err := NewOrderItem(uuid.New(), uuid.New(), "widget", decimal.NewFromInt(25), 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("Negative unit price", func(t *testing.T) {
		_, err := NewOrderItem(uuid.New(), uuid.New(), "widget", decimal.NewFromInt(-25), 1)
		assert.ErrorIs(t, err, ErrInvalidUnitPrice)
	})

	t.Run("Zero unit price", func(t *testing.T) {
		_, err := NewOrderItem(uuid.New(), uuid.New(), "widget", decimal.Zero, 1)
		assert.ErrorIs(t, err, ErrInvalidUnitPrice)
	})
}

func TestNewOrder(t *testing.T) {
	orderID := uuid.New()
	customerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		items := []OrderItem{
			testItem(t, orderID, 100, 2),
			testItem(t, orderID, 50, 1),
		}

		order, event, err := NewOrder(orderID, customerID, items, time.Time{})
		require.NoError(t, err)

		assert.Equal(t, OrderStatusPending, order.Status)
		assert.True(t, order.TotalAmount().Equal(decimal.NewFromInt(250)))
		assert.False(t, order.OrderDate.IsZero())
		assert.Len(t, order.Items, 2)

		assert.Equal(t, EventTypeOrderCreated, event.Type())
		assert.True(t, event.TotalAmount.Equal(decimal.NewFromInt(250)))
		require.Len(t, event.Items, 2)
		assert.True(t, event.Items[0].TotalPrice.Equal(decimal.NewFromInt(200)))
	})

	t.Run("Empty order", func(t *testing.T) {
		_, _, err := NewOrder(orderID, customerID, nil, time.Time{})
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("Invalid item rejected", func(t *testing.T) {
		bad := OrderItem{ID: uuid.New(), Product: "widget", UnitPrice: decimal.NewFromInt(10), Quantity: 0}
		_, _, err := NewOrder(orderID, customerID, []OrderItem{bad}, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("Explicit order date kept", func(t *testing.T) {
		when := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
		order, _, err := NewOrder(orderID, customerID, []OrderItem{testItem(t, orderID, 10, 1)}, when)
		require.NoError(t, err)
		assert.Equal(t, when, order.OrderDate)
	})
}

func TestOrder_WithStatus(t *testing.T) {
	order, _, err := NewOrder(uuid.New(), uuid.New(), []OrderItem{testItem(t, uuid.Nil, 10, 1)}, time.Time{})
	require.NoError(t, err)

	processed := order.WithStatus(OrderStatusProcessed)
	assert.Equal(t, OrderStatusProcessed, processed.Status)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, processed.TotalAmount().Equal(order.TotalAmount()))
}

func TestOrder_AddRemoveItem(t *testing.T) {
	orderID := uuid.New()
	first := testItem(t, orderID, 100, 1)
	order, _, err := NewOrder(orderID, uuid.New(), []OrderItem{first}, time.Time{})
	require.NoError(t, err)
	first = order.Items[0]

	second := testItem(t, orderID, 30, 3)
	grown, err := order.AddItem(second)
	require.NoError(t, err)
	assert.Len(t, grown.Items, 2)
	assert.True(t, grown.TotalAmount().Equal(decimal.NewFromInt(190)))
	// original unchanged
	assert.Len(t, order.Items, 1)

	shrunk, err := grown.RemoveItem(second.ID)
	require.NoError(t, err)
	assert.True(t, shrunk.TotalAmount().Equal(decimal.NewFromInt(100)))

	t.Run("Unknown item", func(t *testing.T) {
		_, err := grown.RemoveItem(uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Cannot remove last item", func(t *testing.T) {
		_, err := order.RemoveItem(first.ID)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("Invalid new item rejected", func(t *testing.T) {
		bad := OrderItem{ID: uuid.New(), Product: "widget", UnitPrice: decimal.Zero, Quantity: 1}
		_, err := order.AddItem(bad)
		assert.ErrorIs(t, err, ErrInvalidUnitPrice)
	})
}
