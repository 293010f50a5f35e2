package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"order-management/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory domain.Store with the same optimistic-version
// semantics as the SQL store: a write whose expected version no longer matches
// fails with ErrConcurrencyConflict, and a failed transaction undoes its writes.
type memStore struct {
	mu sync.Mutex
	// txMu serializes whole transactions, so a transaction never reads
	// another transaction's uncommitted writes. The SQL store gets the same
	// guarantee from read committed plus row locks.
	txMu      sync.Mutex
	customers map[uuid.UUID]domain.Customer
	orders    map[uuid.UUID]domain.Order
	invoices  map[uuid.UUID]domain.Invoice

	// afterLoadInvoice, when set, runs after GetInvoiceForPayment inside a
	// transaction. Tests use it to interleave a competing writer.
	afterLoadInvoice func()
}

func newMemStore() *memStore {
	return &memStore{
		customers: make(map[uuid.UUID]domain.Customer),
		orders:    make(map[uuid.UUID]domain.Order),
		invoices:  make(map[uuid.UUID]domain.Invoice),
	}
}

var _ domain.Store = (*memStore)(nil)

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	repo := &memRepo{s: s, inTx: true}
	if err := fn(ctx, repo); err != nil {
		repo.rollback()
		return err
	}
	return nil
}

func (s *memStore) GetCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return (&memRepo{s: s}).GetCustomerByID(ctx, id)
}

func (s *memStore) GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	return (&memRepo{s: s}).GetCustomerByUserID(ctx, userID)
}

func (s *memStore) InsertCustomer(ctx context.Context, c domain.Customer) error {
	return (&memRepo{s: s}).InsertCustomer(ctx, c)
}

func (s *memStore) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	return (&memRepo{s: s}).UpdateCustomer(ctx, c)
}

func (s *memStore) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return (&memRepo{s: s}).GetOrderByID(ctx, id)
}

func (s *memStore) InsertOrder(ctx context.Context, o domain.Order) error {
	return (&memRepo{s: s}).InsertOrder(ctx, o)
}

func (s *memStore) UpdateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	return (&memRepo{s: s}).UpdateOrder(ctx, o)
}

func (s *memStore) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return (&memRepo{s: s}).GetInvoiceByID(ctx, id)
}

func (s *memStore) GetInvoiceForPayment(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return (&memRepo{s: s}).GetInvoiceForPayment(ctx, id)
}

func (s *memStore) InsertInvoice(ctx context.Context, inv domain.Invoice) error {
	return (&memRepo{s: s}).InsertInvoice(ctx, inv)
}

func (s *memStore) UpdateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	return (&memRepo{s: s}).UpdateInvoice(ctx, inv)
}

func (s *memStore) ListDueInvoices(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	return (&memRepo{s: s}).ListDueInvoices(ctx, now)
}

type memRepo struct {
	s    *memStore
	inTx bool
	undo []func()
}

var _ domain.Repository = (*memRepo)(nil)

func (r *memRepo) rollback() {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.undo) - 1; i >= 0; i-- {
		r.undo[i]()
	}
	r.undo = nil
}

func (r *memRepo) GetCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok || c.Deleted {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (r *memRepo) GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.UserID == userID && !c.Deleted {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *memRepo) InsertCustomer(ctx context.Context, c domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.customers {
		if existing.Email == c.Email {
			return domain.ErrEmailTaken
		}
		if existing.UserID == c.UserID {
			return domain.ErrCustomerExists
		}
	}
	r.s.customers[c.ID] = c
	return nil
}

func (r *memRepo) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.customers[c.ID]
	if !ok || prev.Version != c.Version {
		return nil, domain.ErrConcurrencyConflict
	}
	c.Version++
	r.s.customers[c.ID] = c
	if r.inTx {
		prev := prev
		r.undo = append(r.undo, func() { r.s.customers[c.ID] = prev })
	}
	return &c, nil
}

func (r *memRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o, nil
}

func (r *memRepo) InsertOrder(ctx context.Context, o domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[o.ID] = o
	return nil
}

func (r *memRepo) UpdateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.orders[o.ID]
	if !ok || prev.Version != o.Version {
		return nil, domain.ErrConcurrencyConflict
	}
	o.Version++
	stored := o
	stored.Customer = nil
	r.s.orders[o.ID] = stored
	if r.inTx {
		prev := prev
		r.undo = append(r.undo, func() { r.s.orders[o.ID] = prev })
	}
	return &o, nil
}

func (r *memRepo) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (r *memRepo) GetInvoiceForPayment(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := r.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := r.GetOrderByID(ctx, inv.OrderID)
	if err != nil {
		return nil, err
	}
	customer, err := r.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	order.Customer = customer
	inv.Order = order

	if r.inTx && r.s.afterLoadInvoice != nil {
		r.s.afterLoadInvoice()
	}
	return inv, nil
}

func (r *memRepo) InsertInvoice(ctx context.Context, inv domain.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := inv
	stored.Order = nil
	r.s.invoices[inv.ID] = stored
	return nil
}

func (r *memRepo) UpdateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.invoices[inv.ID]
	if !ok || prev.Version != inv.Version {
		return nil, domain.ErrConcurrencyConflict
	}
	inv.Version++
	stored := inv
	stored.Order = nil
	r.s.invoices[inv.ID] = stored
	if r.inTx {
		prev := prev
		r.undo = append(r.undo, func() { r.s.invoices[inv.ID] = prev })
	}
	return &inv, nil
}

func (r *memRepo) ListDueInvoices(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var due []*domain.Invoice
	for _, inv := range r.s.invoices {
		if inv.Status == domain.InvoiceStatusPending && inv.DueDate.Before(now) {
			inv := inv
			due = append(due, &inv)
		}
	}
	return due, nil
}

// memSink buffers published events for inspection.
type memSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *memSink) Publish(ctx context.Context, events ...domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *memSink) byType(eventType string) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []domain.Event
	for _, e := range m.events {
		if e.Type() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// fixture seeds a customer, an order and a pending invoice.
type fixture struct {
	store    *memStore
	sink     *memSink
	customer domain.Customer
	order    domain.Order
	invoice  domain.Invoice
}

func newFixture(t *testing.T, invoiceAmount, balance int64) *fixture {
	t.Helper()

	store := newMemStore()
	sink := &memSink{}

	customer, _, err := domain.NewCustomer(uuid.New(), "Ada", "Lovelace", "ada@example.com", "user-1", decimal.NewFromInt(balance))
	require.NoError(t, err)
	require.NoError(t, store.InsertCustomer(context.Background(), customer))

	orderID := uuid.New()
	item, err := domain.NewOrderItem(uuid.New(), orderID, "widget", decimal.NewFromInt(invoiceAmount), 1)
	require.NoError(t, err)
	order, _, err := domain.NewOrder(orderID, customer.ID, []domain.OrderItem{item}, time.Time{})
	require.NoError(t, err)
	require.NoError(t, store.InsertOrder(context.Background(), order))

	now := time.Now().UTC()
	invoice, _, err := domain.NewInvoice(uuid.New(), order, order.TotalAmount(), now.Add(72*time.Hour), now)
	require.NoError(t, err)
	require.NoError(t, store.InsertInvoice(context.Background(), invoice))

	return &fixture{store: store, sink: sink, customer: customer, order: order, invoice: invoice}
}

func (f *fixture) owner() domain.Principal { return domain.Principal{UserID: f.customer.UserID} }

func admin() domain.Principal { return domain.Principal{UserID: "admin-1", Admin: true} }
