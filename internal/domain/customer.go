package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer owns a wallet balance. Every operation takes the current value and
// returns a new one; the balance never goes negative.
type Customer struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	FirstName     string          `db:"first_name" json:"first_name"`
	LastName      string          `db:"last_name" json:"last_name"`
	Email         string          `db:"email" json:"email"`
	UserID        string          `db:"user_id" json:"user_id"`
	WalletBalance decimal.Decimal `db:"wallet_balance" json:"wallet_balance"`
	Deleted       bool            `db:"deleted" json:"-"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	Version       int             `db:"version" json:"-"`
}

// NewCustomer validates and creates a customer with the given starting balance.
func NewCustomer(id uuid.UUID, firstName, lastName, email, userID string, initialBalance decimal.Decimal) (Customer, CustomerCreatedEvent, error) {
	if strings.TrimSpace(firstName) == "" {
		return Customer{}, CustomerCreatedEvent{}, &ValidationError{Field: "first_name", Reason: "is required"}
	}
	if strings.TrimSpace(lastName) == "" {
		return Customer{}, CustomerCreatedEvent{}, &ValidationError{Field: "last_name", Reason: "is required"}
	}
	if !isValidEmail(email) {
		return Customer{}, CustomerCreatedEvent{}, &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if strings.TrimSpace(userID) == "" {
		return Customer{}, CustomerCreatedEvent{}, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if initialBalance.IsNegative() {
		return Customer{}, CustomerCreatedEvent{}, &ValidationError{Field: "initial_balance", Reason: "cannot be negative"}
	}

	customer := Customer{
		ID:            id,
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		UserID:        userID,
		WalletBalance: initialBalance,
		CreatedAt:     time.Now().UTC(),
		Version:       1,
	}

	event := CustomerCreatedEvent{
		BaseEvent:      newBaseEvent(EventTypeCustomerCreated),
		CustomerID:     customer.ID,
		FirstName:      customer.FirstName,
		LastName:       customer.LastName,
		Email:          customer.Email,
		UserID:         customer.UserID,
		InitialBalance: customer.WalletBalance,
	}

	return customer, event, nil
}

// AddFunds returns a customer with the balance increased by amount.
func (c Customer) AddFunds(amount decimal.Decimal) (Customer, error) {
	if !amount.IsPositive() {
		return Customer{}, ErrInvalidAmount
	}
	c.WalletBalance = c.WalletBalance.Add(amount)
	return c, nil
}

// DeductFunds returns a customer with the balance decreased by amount.
func (c Customer) DeductFunds(amount decimal.Decimal) (Customer, error) {
	if !amount.IsPositive() {
		return Customer{}, ErrInvalidAmount
	}
	if c.WalletBalance.LessThan(amount) {
		return Customer{}, &InsufficientFundsError{Required: amount, Available: c.WalletBalance}
	}
	c.WalletBalance = c.WalletBalance.Sub(amount)
	return c, nil
}

// UpdateEmail returns a customer with the email replaced.
func (c Customer) UpdateEmail(newEmail string) (Customer, error) {
	if !isValidEmail(newEmail) {
		return Customer{}, &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	c.Email = newEmail
	return c, nil
}

func isValidEmail(email string) bool {
	return strings.TrimSpace(email) != "" && strings.Contains(email, "@")
}
