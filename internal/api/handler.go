package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"order-management/internal/domain"
	"order-management/internal/service"
	"order-management/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	customers *service.CustomerService
	orders    *service.OrderService
	invoices  *service.InvoiceService
	payments  *service.PaymentCoordinator
}

// NewHandler creates a new HTTP handler
func NewHandler(
	customers *service.CustomerService,
	orders *service.OrderService,
	invoices *service.InvoiceService,
	payments *service.PaymentCoordinator,
) *Handler {
	return &Handler{
		customers: customers,
		orders:    orders,
		invoices:  invoices,
		payments:  payments,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers/:id", h.getCustomer)
		v1.POST("/customers/:id/deposit", h.addFunds)
		v1.POST("/customers/:id/withdraw", h.deductFunds)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)

		v1.POST("/invoices", h.generateInvoice)
		v1.GET("/invoices/:id", h.getInvoice)
		v1.POST("/invoices/:id/pay", h.payInvoice)
		v1.POST("/invoices/:id/cancel", h.cancelInvoice)
		v1.POST("/invoices/:id/overdue", h.markInvoiceOverdue)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// principal builds the caller's identity from the gateway headers.
func principal(c *gin.Context) domain.Principal {
	return domain.Principal{
		UserID: c.GetHeader("X-User-ID"),
		Admin:  c.GetHeader("X-Admin") == "true",
	}
}

// createCustomer handles customer creation
func (h *Handler) createCustomer(c *gin.Context) {
	var cmd service.CreateCustomerCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	customer, err := h.customers.CreateCustomer(c.Request.Context(), cmd, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// getCustomer handles get customer by ID
func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

type fundsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// addFunds handles wallet top-ups
func (h *Handler) addFunds(c *gin.Context) {
	h.adjustFunds(c, h.customers.AddFunds)
}

// deductFunds handles wallet debits
func (h *Handler) deductFunds(c *gin.Context) {
	h.adjustFunds(c, h.customers.DeductFunds)
}

func (h *Handler) adjustFunds(
	c *gin.Context,
	apply func(ctx context.Context, cmd service.AdjustFundsCommand, p domain.Principal) (*domain.Customer, error),
) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req fundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	customer, err := apply(c.Request.Context(), service.AdjustFundsCommand{
		CustomerID: id,
		Amount:     req.Amount,
	}, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var cmd service.CreateOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), cmd, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// generateInvoice handles invoice generation for an order
func (h *Handler) generateInvoice(c *gin.Context) {
	var cmd service.GenerateInvoiceCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	invoice, err := h.invoices.GenerateInvoice(c.Request.Context(), cmd, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// getInvoice handles get invoice by ID
func (h *Handler) getInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	invoice, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// payInvoice handles invoice payment
func (h *Handler) payInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	cmd := service.PayInvoiceCommand{
		InvoiceID:      id,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	invoice, err := h.payments.PayInvoice(c.Request.Context(), cmd, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// cancelInvoice handles invoice cancellation
func (h *Handler) cancelInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	invoice, err := h.invoices.CancelInvoice(c.Request.Context(), id, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// markInvoiceOverdue handles manual overdue marking
func (h *Handler) markInvoiceOverdue(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	invoice, err := h.invoices.MarkInvoiceOverdue(c.Request.Context(), id, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid id",
		})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps a failure kind to an HTTP status. The body carries the kind
// name so clients can branch without parsing the message.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := "internal"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrInsufficientFunds):
		status, kind = http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, domain.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		status, kind = http.StatusConflict, "invalid_status_transition"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, kind = http.StatusConflict, "concurrency_conflict"
	case errors.Is(err, domain.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrNotYetDue):
		status, kind = http.StatusUnprocessableEntity, "not_yet_due"
	}

	c.JSON(status, gin.H{
		"error":   kind,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
