package worker

import (
	"context"
	"errors"
	"time"

	"order-management/internal/domain"
	"order-management/internal/service"
	"order-management/internal/util"

	"go.uber.org/zap"
)

// Locker serializes the overdue sweep across instances. Only the holder of the
// lock runs a sweep; the others skip the tick.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

const overdueLockKey = "invoice-overdue-sweep"

// OverdueWorker periodically marks pending invoices whose due date has passed
// as overdue.
type OverdueWorker struct {
	store    domain.Store
	invoices *service.InvoiceService
	locker   Locker
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

// NewOverdueWorker creates a new overdue worker. locker may be nil when the
// service runs as a single instance.
func NewOverdueWorker(store domain.Store, invoices *service.InvoiceService, locker Locker, interval time.Duration) *OverdueWorker {
	return &OverdueWorker{
		store:    store,
		invoices: invoices,
		locker:   locker,
		interval: interval,
		logger:   util.GetLogger(),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called.
func (w *OverdueWorker) Start(ctx context.Context) {
	defer close(w.done)

	w.logger.Info("Starting overdue worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Error("Overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// Stop stops the worker and waits for the current sweep to finish.
func (w *OverdueWorker) Stop() {
	close(w.stop)
	<-w.done
}

// Sweep marks every pending invoice past its due date as overdue. Invoices
// that were paid, cancelled or already swept by a competing writer in the
// meantime are skipped; one bad invoice never aborts the rest of the batch.
func (w *OverdueWorker) Sweep(ctx context.Context) error {
	if w.locker != nil {
		acquired, err := w.locker.AcquireLock(ctx, overdueLockKey, w.interval)
		if err != nil {
			return err
		}
		if !acquired {
			w.logger.Debug("Overdue sweep held by another instance, skipping")
			return nil
		}
		defer func() {
			if err := w.locker.ReleaseLock(ctx, overdueLockKey); err != nil {
				w.logger.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	due, err := w.store.ListDueInvoices(ctx, w.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	w.logger.Info("Sweeping overdue invoices", zap.Int("count", len(due)))

	marked := 0
	for _, invoice := range due {
		_, err := w.invoices.MarkInvoiceOverdue(ctx, invoice.ID, workerPrincipal())
		switch {
		case err == nil:
			marked++
		case errors.Is(err, domain.ErrInvalidStatusTransition),
			errors.Is(err, domain.ErrConcurrencyConflict),
			errors.Is(err, domain.ErrNotYetDue),
			errors.Is(err, domain.ErrNotFound):
			// settled or swept concurrently since the listing
			continue
		default:
			w.logger.Error("Failed to mark invoice overdue",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
		}
	}

	w.logger.Info("Overdue sweep complete",
		zap.Int("marked", marked),
		zap.Int("listed", len(due)))
	return nil
}

func workerPrincipal() domain.Principal {
	return domain.Principal{UserID: "overdue-worker", Admin: true}
}
