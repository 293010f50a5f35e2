package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-management/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetOrderByID retrieves an order with its items
func (q *queries) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := sqlx.GetContext(ctx, q.ext, &order,
		`SELECT id, customer_id, order_date, status, version FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	items, err := q.getOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (q *queries) getOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := sqlx.SelectContext(ctx, q.ext, &items,
		`SELECT id, order_id, product, unit_price, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for order %s: %w", orderID, err)
	}
	return items, nil
}

// InsertOrder creates the order row and its item rows.
func (q *queries) InsertOrder(ctx context.Context, order domain.Order) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, order_date, status, version)
		 VALUES ($1, $2, $3, $4, $5)`,
		order.ID, order.CustomerID, order.OrderDate, order.Status, order.Version)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}

	for _, item := range order.Items {
		_, err := q.ext.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.OrderID, item.Product, item.UnitPrice, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", item.ID, err)
		}
	}

	return nil
}

// UpdateOrder writes the order's new status under the optimistic-version
// guard. Items are fixed after creation and are not rewritten here.
func (q *queries) UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE orders SET status = $1, version = version + 1 WHERE id = $2 AND version = $3`,
		order.Status, order.ID, order.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrConcurrencyConflict
	}

	order.Version++
	return &order, nil
}
