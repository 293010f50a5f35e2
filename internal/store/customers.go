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

const customerColumns = `id, first_name, last_name, email, user_id, wallet_balance, deleted, created_at, version`

// GetCustomerByID retrieves a customer by ID
func (q *queries) GetCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	err := sqlx.GetContext(ctx, q.ext, &customer,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND deleted = FALSE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}
	return &customer, nil
}

// GetCustomerByUserID retrieves the customer linked to an external user
func (q *queries) GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := sqlx.GetContext(ctx, q.ext, &customer,
		`SELECT `+customerColumns+` FROM customers WHERE user_id = $1 AND deleted = FALSE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer for user %s: %w", userID, err)
	}
	return &customer, nil
}

// InsertCustomer creates a customer row. A duplicate email or user reference
// surfaces as the matching conflict kind.
func (q *queries) InsertCustomer(ctx context.Context, customer domain.Customer) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO customers (id, first_name, last_name, email, user_id, wallet_balance, deleted, created_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		customer.ID, customer.FirstName, customer.LastName, customer.Email, customer.UserID,
		customer.WalletBalance, customer.Deleted, customer.CreatedAt, customer.Version)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to insert customer %s: %w", customer.ID, err)
	}
	return nil
}

// UpdateCustomer writes a new customer value under the optimistic-version
// guard. The returned value carries the incremented version.
func (q *queries) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE customers
		 SET first_name = $1, last_name = $2, email = $3, wallet_balance = $4, deleted = $5, version = version + 1
		 WHERE id = $6 AND version = $7`,
		customer.FirstName, customer.LastName, customer.Email, customer.WalletBalance,
		customer.Deleted, customer.ID, customer.Version)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to update customer %s: %w", customer.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrConcurrencyConflict
	}

	customer.Version++
	return &customer, nil
}
