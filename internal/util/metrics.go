package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CustomersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "customers_created_total",
		Help: "Total number of customers created",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	InvoicesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_generated_total",
		Help: "Total number of invoices generated",
	})

	InvoicesCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_cancelled_total",
		Help: "Total number of invoices cancelled",
	})

	InvoicesOverdueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_overdue_total",
		Help: "Total number of invoices marked overdue",
	})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of invoice payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful invoice payments",
	})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed invoice payments",
	}, []string{"reason"})

	PaymentConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_conflicts_total",
		Help: "Total number of payments rejected by the optimistic-concurrency guard",
	})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of the payment transaction",
		Buckets: prometheus.DefBuckets,
	})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_events_published_total",
		Help: "Total number of domain events published after commit",
	}, []string{"type"})

	EventPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "domain_event_publish_failures_total",
		Help: "Total number of domain events that failed to publish",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
