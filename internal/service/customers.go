package service

import (
	"context"
	"fmt"

	"order-management/internal/domain"
	"order-management/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerService handles customer lifecycle and wallet mutations.
type CustomerService struct {
	store  domain.Store
	events domain.EventSink
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store domain.Store, events domain.EventSink) *CustomerService {
	return &CustomerService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateCustomerCommand requests creation of a customer with a starting balance.
type CreateCustomerCommand struct {
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	UserID         string          `json:"user_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// CreateCustomer validates and persists a new customer. Admin only; a
// duplicate email or user reference fails with the matching conflict kind.
func (cs *CustomerService) CreateCustomer(ctx context.Context, cmd CreateCustomerCommand, principal domain.Principal) (*domain.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.CreateCustomer")
	defer span.End()

	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can create customers", domain.ErrForbidden)
	}

	customer, event, err := domain.NewCustomer(uuid.New(), cmd.FirstName, cmd.LastName, cmd.Email, cmd.UserID, cmd.InitialBalance)
	if err != nil {
		return nil, err
	}

	if err := cs.store.InsertCustomer(ctx, customer); err != nil {
		return nil, err
	}

	if err := cs.events.Publish(ctx, event); err != nil {
		cs.logger.Error("Failed to publish CustomerCreated event", zap.Error(err))
	}

	util.CustomersCreatedTotal.Inc()
	cs.logger.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("user_id", customer.UserID))

	return &customer, nil
}

// GetCustomer retrieves a customer by ID
func (cs *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return cs.store.GetCustomerByID(ctx, id)
}

// AdjustFundsCommand tops up or debits a customer's wallet.
type AdjustFundsCommand struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// AddFunds increases a customer's wallet balance under the version guard.
func (cs *CustomerService) AddFunds(ctx context.Context, cmd AdjustFundsCommand, principal domain.Principal) (*domain.Customer, error) {
	return cs.adjustFunds(ctx, cmd, principal, domain.Customer.AddFunds)
}

// DeductFunds decreases a customer's wallet balance under the version guard.
// The balance never goes negative.
func (cs *CustomerService) DeductFunds(ctx context.Context, cmd AdjustFundsCommand, principal domain.Principal) (*domain.Customer, error) {
	return cs.adjustFunds(ctx, cmd, principal, domain.Customer.DeductFunds)
}

func (cs *CustomerService) adjustFunds(
	ctx context.Context,
	cmd AdjustFundsCommand,
	principal domain.Principal,
	apply func(domain.Customer, decimal.Decimal) (domain.Customer, error),
) (*domain.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.adjustFunds")
	defer span.End()

	customer, err := cs.store.GetCustomerByID(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() && customer.UserID != principal.UserID {
		return nil, fmt.Errorf("%w: you can only adjust your own wallet", domain.ErrForbidden)
	}

	adjusted, err := apply(*customer, cmd.Amount)
	if err != nil {
		return nil, err
	}

	saved, err := cs.store.UpdateCustomer(ctx, adjusted)
	if err != nil {
		return nil, err
	}

	cs.logger.Info("Wallet adjusted",
		zap.String("customer_id", saved.ID.String()),
		zap.String("balance", saved.WalletBalance.String()))

	return saved, nil
}
