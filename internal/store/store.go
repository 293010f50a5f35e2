package store

import (
	"context"
	"fmt"
	"time"

	"order-management/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store is the durable aggregate store. Every aggregate row carries a version
// column; updates are applied only when the expected version still matches, so
// a stale write fails with domain.ErrConcurrencyConflict instead of clobbering
// a concurrent commit.
type Store struct {
	db *sqlx.DB
	queries
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, queries: queries{ext: db}}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests.
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db, queries: queries{ext: db}}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn against a transaction-scoped repository. fn returning an
// error rolls everything back; otherwise the transaction commits.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repository) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the schema. Idempotent; runs at startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// queries implements domain.Repository over either the pool or one transaction.
type queries struct {
	ext sqlx.ExtContext
}

var _ domain.Repository = (*queries)(nil)

const (
	pqUniqueViolation = "23505"

	constraintCustomersEmail = "customers_email_key"
	constraintCustomersUser  = "customers_user_id_key"
)

// mapUniqueViolation translates a unique-index violation into the conflict
// kind the boundary reports, based on the violated constraint. Returns nil for
// anything that is not a unique violation.
func mapUniqueViolation(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok || string(pqErr.Code) != pqUniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case constraintCustomersEmail:
		return domain.ErrEmailTaken
	case constraintCustomersUser:
		return domain.ErrCustomerExists
	default:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Constraint)
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id              UUID PRIMARY KEY,
    first_name      TEXT NOT NULL,
    last_name       TEXT NOT NULL,
    email           TEXT NOT NULL,
    user_id         TEXT NOT NULL,
    wallet_balance  NUMERIC(19, 4) NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
    deleted         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    version         INTEGER NOT NULL DEFAULT 1
);

CREATE UNIQUE INDEX IF NOT EXISTS customers_email_key ON customers (email);
CREATE UNIQUE INDEX IF NOT EXISTS customers_user_id_key ON customers (user_id);

CREATE TABLE IF NOT EXISTS orders (
    id          UUID PRIMARY KEY,
    customer_id UUID NOT NULL REFERENCES customers (id),
    order_date  TIMESTAMPTZ NOT NULL,
    status      TEXT NOT NULL,
    version     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS order_items (
    id          UUID PRIMARY KEY,
    order_id    UUID NOT NULL REFERENCES orders (id),
    product     TEXT NOT NULL,
    unit_price  NUMERIC(19, 4) NOT NULL CHECK (unit_price > 0),
    quantity    INTEGER NOT NULL CHECK (quantity > 0)
);

CREATE TABLE IF NOT EXISTS invoices (
    id          UUID PRIMARY KEY,
    order_id    UUID NOT NULL REFERENCES orders (id),
    amount      NUMERIC(19, 4) NOT NULL CHECK (amount > 0),
    due_date    TIMESTAMPTZ NOT NULL,
    status      TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    version     INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS invoices_due_key ON invoices (status, due_date);
`
