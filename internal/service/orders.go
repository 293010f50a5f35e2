package service

import (
	"context"
	"fmt"
	"time"

	"order-management/internal/domain"
	"order-management/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService handles order creation and lookup.
type OrderService struct {
	store  domain.Store
	events domain.EventSink
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store domain.Store, events domain.EventSink) *OrderService {
	return &OrderService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// OrderItemRequest describes one line item in a create-order command.
type OrderItemRequest struct {
	Product   string          `json:"product"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// CreateOrderCommand requests creation of an order for a customer.
type CreateOrderCommand struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Items      []OrderItemRequest `json:"items"`
	OrderDate  time.Time          `json:"order_date,omitempty"`
}

// CreateOrder validates the items and persists the order with its items in one
// transaction. The caller must be the customer or an administrator.
func (os *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand, principal domain.Principal) (*domain.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	customer, err := os.store.GetCustomerByID(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() && customer.UserID != principal.UserID {
		return nil, fmt.Errorf("%w: you can only create orders for yourself", domain.ErrForbidden)
	}

	orderID := uuid.New()
	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, req := range cmd.Items {
		item, err := domain.NewOrderItem(uuid.New(), orderID, req.Product, req.UnitPrice, req.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, event, err := domain.NewOrder(orderID, cmd.CustomerID, items, cmd.OrderDate)
	if err != nil {
		return nil, err
	}

	err = os.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if err := os.events.Publish(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	util.OrdersCreatedTotal.Inc()
	os.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.String("total", order.TotalAmount().String()))

	return &order, nil
}

// GetOrder retrieves an order with its items
func (os *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return os.store.GetOrderByID(ctx, id)
}
