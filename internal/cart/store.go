package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nikolayk812/marketplace-cart/internal/config"
	"github.com/nikolayk812/marketplace-cart/internal/domain"
	"github.com/nikolayk812/marketplace-cart/internal/port"
	"github.com/nikolayk812/marketplace-cart/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

const DefaultStorageKey = config.DefaultStorageKey

var (
	ErrAlreadyHydrated      = errors.New("cart: already hydrated")
	ErrHydrateAfterMutation = errors.New("cart: hydrate after mutation")
)

var _ port.Cart = (*Store)(nil)

type Option func(*Store)

func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func WithCurrency(unit currency.Unit) Option {
	return func(s *Store) {
		s.unit = unit
	}
}

func WithLocale(tag language.Tag) Option {
	return func(s *Store) {
		s.tag = tag
	}
}

// Store holds the cart of one session and mirrors every change to a KVStore.
// Mutations are applied in memory synchronously; their snapshots are written
// by a single background writer, see Flush.
type Store struct {
	key  string
	unit currency.Unit
	tag  language.Tag
	log  logrus.FieldLogger
	kv   port.KVStore
	w    *writer

	mu       sync.Mutex
	items    []domain.CartItem
	hydrated bool
	mutated  bool
}

// New returns an empty, not yet hydrated store. Close must be called to stop its writer.
func New(kv port.KVStore, opts ...Option) *Store {
	s := &Store{
		key:   DefaultStorageKey,
		unit:  currency.BRL,
		tag:   language.BrazilianPortuguese,
		log:   logrus.StandardLogger(),
		kv:    kv,
		items: []domain.CartItem{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.WithField("component", "cart")
	s.w = newWriter(kv, s.key, s.log)

	return s
}

// Open builds a store and hydrates it before returning,
// so no mutation can race the initial load.
func Open(ctx context.Context, kv port.KVStore, opts ...Option) (*Store, error) {
	s := New(kv, opts...)

	if err := s.Hydrate(ctx); err != nil {
		closeErr := s.Close(ctx)
		return nil, errors.Join(fmt.Errorf("s.Hydrate: %w", err), closeErr)
	}

	return s, nil
}

// Hydrate loads the persisted snapshot once. A missing key leaves the cart empty.
// If the cart was mutated while loading, memory is kept and ErrHydrateAfterMutation returned.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	hydrated := s.hydrated
	s.mu.Unlock()

	if hydrated {
		return ErrAlreadyHydrated
	}

	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("kv.Get: %w", err)
	}

	var items []domain.CartItem
	if ok {
		items, err = repository.DecodeCart(data)
		if err != nil {
			return fmt.Errorf("repository.DecodeCart: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return ErrAlreadyHydrated
	}
	s.hydrated = true

	if s.mutated {
		s.log.WithField("stored_items", len(items)).Warn("cart changed before hydration, stored snapshot ignored")
		return ErrHydrateAfterMutation
	}

	if ok {
		s.items = items
	}
	s.log.WithField("items", len(s.items)).Debug("cart hydrated")

	return nil
}

func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated
}

// Products returns a copy of the current line items in insertion order.
func (s *Store) Products() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.items)
}

func (s *Store) AddToCart(p domain.Product) error {
	if p.ID == "" {
		return fmt.Errorf("product ID is empty")
	}

	s.apply(func(items []domain.CartItem) []domain.CartItem {
		return domain.AddItem(items, p)
	})

	return nil
}

func (s *Store) Increment(id string) {
	s.apply(func(items []domain.CartItem) []domain.CartItem {
		return domain.IncrementItem(items, id)
	})
}

func (s *Store) Decrement(id string) {
	s.apply(func(items []domain.CartItem) []domain.CartItem {
		return domain.DecrementItem(items, id)
	})
}

// Clear empties the cart and removes its stored snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.CartItem{}
	s.mutated = true

	s.w.scheduleRemove()
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.Count(s.items)
}

func (s *Store) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.Total(s.items, s.unit)
}

// FormattedTotal renders Total for display in the store locale.
func (s *Store) FormattedTotal() string {
	return s.Total().Format(s.tag)
}

// Flush waits until every scheduled snapshot is written and returns
// the first write error seen since the previous Flush.
func (s *Store) Flush(ctx context.Context) error {
	return s.w.flush(ctx)
}

// Close flushes pending snapshots and stops the writer.
// Mutations after Close still change memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	return s.w.close(ctx)
}

// apply replaces the items with fn's result and schedules the full snapshot.
// Scheduling happens under the lock so snapshots reach the writer in mutation order.
func (s *Store) apply(fn func([]domain.CartItem) []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = fn(s.items)
	s.mutated = true

	data, err := repository.EncodeCart(s.items)
	if err != nil {
		s.log.WithError(err).Error("encode cart snapshot")
		return
	}

	s.w.schedule(data)
}
