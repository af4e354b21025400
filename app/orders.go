// Package app is a small order-processing application assembled entirely by
// the container. It is what the go-inject CLI graphs, checks and serves.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alecthomas/errors"
)

var (
	ErrEmptyOrder    = errors.New("order has no items")
	ErrOrderNotFound = errors.New("order not found")
)

// Item is one order line.
type Item struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	ID       string    `json:"id"`
	Customer string    `json:"customer"`
	Items    []Item    `json:"items"`
	PlacedAt time.Time `json:"placed_at"`
}

// ── Clock ─────────────────────────────────────────────────────────────────────

// Clock tells the time. Tests replace it with a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewClock() Clock { return systemClock{} }

// ── Store ─────────────────────────────────────────────────────────────────────

// OrderStore persists orders.
type OrderStore interface {
	Save(ctx context.Context, order *Order) error
	Find(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
}

// MemoryStore keeps orders in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

var _ OrderStore = (*MemoryStore)(nil)

func NewMemoryStore() OrderStore {
	return &MemoryStore{orders: map[string]*Order{}}
}

func (s *MemoryStore) Save(_ context.Context, order *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, errors.Errorf("%s: %w", id, ErrOrderNotFound)
	}
	return order, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Order, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, order)
	}
	slices.SortFunc(out, func(a, b *Order) int { return a.PlacedAt.Compare(b.PlacedAt) })
	return out, nil
}

// ── Mailer ────────────────────────────────────────────────────────────────────

// Mailer sends order confirmations.
type Mailer interface {
	Send(ctx context.Context, to, subject string) error
}

// LogMailer writes confirmations to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewMailer(logger *slog.Logger) Mailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject string) error {
	m.logger.InfoContext(ctx, "Mail sent", "to", to, "subject", subject)
	return nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

// Orders places and looks up orders.
type Orders struct {
	store  OrderStore
	mailer Mailer
	clock  Clock
	logger *slog.Logger

	mu   sync.Mutex
	next int
}

func NewOrders(store OrderStore, mailer Mailer, clock Clock, logger *slog.Logger) *Orders {
	return &Orders{store: store, mailer: mailer, clock: clock, logger: logger}
}

// Place stores a new order and mails a confirmation to the customer.
func (o *Orders) Place(ctx context.Context, customer string, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.WithStack(ErrEmptyOrder)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errors.Errorf("invalid quantity %d for %s", item.Quantity, item.SKU)
		}
	}

	o.mu.Lock()
	o.next++
	id := fmt.Sprintf("ord-%04d", o.next)
	o.mu.Unlock()

	order := &Order{ID: id, Customer: customer, Items: items, PlacedAt: o.clock.Now()}
	if err := o.store.Save(ctx, order); err != nil {
		return nil, errors.Wrapf(err, "failed to save %s", id)
	}
	if err := o.mailer.Send(ctx, customer, "Order "+id+" confirmed"); err != nil {
		return nil, errors.Wrapf(err, "failed to confirm %s", id)
	}
	o.logger.InfoContext(ctx, "Order placed", "id", id, "customer", customer, "items", len(items))
	return order, nil
}

// Get returns the order with the given id.
func (o *Orders) Get(ctx context.Context, id string) (*Order, error) {
	return o.store.Find(ctx, id)
}

// List returns every order, oldest first.
func (o *Orders) List(ctx context.Context) ([]*Order, error) {
	return o.store.List(ctx)
}
