package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Failure kinds. Every error returned by the domain or the store wraps one of
// these sentinels, so callers can branch with errors.Is and map each kind to a
// distinct boundary response.
var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrConflict                = errors.New("conflict")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrConcurrencyConflict     = errors.New("concurrency conflict: aggregate was modified, retry from a fresh read")
	ErrNotYetDue               = errors.New("invoice is not yet due")
)

// Validation errors
var (
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidDueDate   = fmt.Errorf("%w: due date must be in the future", ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrInvalidUnitPrice = fmt.Errorf("%w: unit price must be positive", ErrValidation)
	ErrEmptyOrder       = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
)

// Not-found errors
var (
	ErrCustomerNotFound  = fmt.Errorf("customer %w", ErrNotFound)
	ErrOrderNotFound     = fmt.Errorf("order %w", ErrNotFound)
	ErrInvoiceNotFound   = fmt.Errorf("invoice %w", ErrNotFound)
	ErrOrderItemNotFound = fmt.Errorf("order item %w", ErrNotFound)
)

// Uniqueness conflicts
var (
	ErrEmailTaken     = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrCustomerExists = fmt.Errorf("%w: customer already exists for user", ErrConflict)
)

// InsufficientFundsError carries the amounts involved in a rejected debit.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s", e.Required, e.Available)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InvalidStatusTransitionError names the invoice status that blocked the transition.
type InvalidStatusTransitionError struct {
	Current InvoiceStatus
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: invoice is %s", e.Current)
}

func (e *InvalidStatusTransitionError) Unwrap() error { return ErrInvalidStatusTransition }

// ValidationError reports a malformed field in a command.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
