// Package cart implements the local shopping cart: optimistic local
// mutations committed first, then a best-effort push to the server-side cart
// when a session is active. Local state is the source of truth for this
// process; the remote copy is eventually consistent.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcforge/storefront/internal/domain"
	"github.com/pcforge/storefront/internal/kv"
	"github.com/pcforge/storefront/internal/metrics"
)

const stateKey = "shopping-cart"

// ErrStockLimit rejects an add that would exceed the stock snapshot carried
// by the item. The snapshot is as fresh as the last product fetch, nothing
// stronger.
var ErrStockLimit = errors.New("stock limit reached")

// TokenSource supplies the bearer credential for remote sync. The session
// store implements it.
type TokenSource interface {
	Token() (string, bool)
}

// RemoteCart is the server-side cart endpoint as the store consumes it.
type RemoteCart interface {
	Fetch(ctx context.Context, token string) ([]domain.LineItem, error)
	Add(ctx context.Context, token string, productID int64, quantity int) error
	Remove(ctx context.Context, token string, productID int64) error
}

// SyncFailure records one best-effort remote write that failed after the
// local mutation already committed.
type SyncFailure struct {
	Op        string
	ProductID int64
	Time      time.Time
	Reason    string
}

const maxSyncFailures = 32

type Store struct {
	mu       sync.RWMutex
	cart     domain.Cart
	failures []SyncFailure

	state  kv.Store
	remote RemoteCart
	tokens TokenSource
	log    zerolog.Logger
}

func NewStore(state kv.Store, remote RemoteCart, tokens TokenSource, log zerolog.Logger) *Store {
	s := &Store{
		state:  state,
		remote: remote,
		tokens: tokens,
		log:    log,
	}
	s.restore()
	return s
}

// AddItem inserts the product with quantity 1, or increments the existing
// line. The add is rejected with ErrStockLimit when the cart already holds
// as many units as the item's stock snapshot. After the local commit the
// delta is pushed to the server cart; a push failure never rolls the local
// mutation back.
func (s *Store) AddItem(ctx context.Context, item domain.LineItem) error {
	s.mu.Lock()
	current := 0
	idx := -1
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == item.ProductID {
			current = s.cart.Items[i].Quantity
			idx = i
			break
		}
	}

	if current >= item.Stock {
		s.mu.Unlock()
		return ErrStockLimit
	}

	if idx >= 0 {
		s.cart.Items[idx].Quantity++
	} else {
		item.Quantity = 1
		s.cart.Items = append(s.cart.Items, item)
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	if token, ok := s.tokens.Token(); ok {
		if err := s.remote.Add(ctx, token, item.ProductID, 1); err != nil {
			s.recordSyncFailure("add", item.ProductID, err)
		}
	}
	return nil
}

// RemoveItem deletes the whole line for the product; there is no partial
// decrement. Removing an absent product is a no-op locally, but the remote
// delete is still attempted so both sides converge.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	s.mu.Lock()
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == productID {
			s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
			break
		}
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	if token, ok := s.tokens.Token(); ok {
		if err := s.remote.Remove(ctx, token, productID); err != nil {
			s.recordSyncFailure("remove", productID, err)
		}
	}
	return nil
}

// Clear empties the cart and resets shipping. Purely local: the server cart
// is deliberately left alone (logout relies on that).
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = domain.Cart{}
	s.persistLocked(ctx)
	return nil
}

func (s *Store) SetShippingPrice(ctx context.Context, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.ShippingPrice = price
	s.persistLocked(ctx)
	return nil
}

// TotalPrice is recomputed on every call; views read it reactively.
func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Total()
}

func (s *Store) ShippingPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ShippingPrice
}

// Items returns a snapshot copy of the cart lines in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LineItem(nil), s.cart.Items...)
}

// FetchServerCart replaces the local item list with the server's version;
// the server wins unconditionally, including over local-only items that were
// never synced. Shipping price is not part of the sync. Without a session
// this is a no-op. On failure the local cart is left as it was: stale but
// present beats empty.
func (s *Store) FetchServerCart(ctx context.Context) error {
	token, ok := s.tokens.Token()
	if !ok {
		return nil
	}

	items, err := s.remote.Fetch(ctx, token)
	if err != nil {
		s.recordSyncFailure("fetch", 0, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Items = items
	s.persistLocked(ctx)
	s.log.Info().Int("items", len(items)).Msg("cart reconciled from server")
	return nil
}

// SyncFailures returns the recent best-effort sync failures, oldest first.
func (s *Store) SyncFailures() []SyncFailure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SyncFailure(nil), s.failures...)
}

func (s *Store) recordSyncFailure(op string, productID int64, err error) {
	metrics.CartSyncFailures.WithLabelValues(op).Inc()
	s.log.Warn().Err(err).Str("op", op).Int64("product_id", productID).
		Msg("remote cart sync failed, local state kept")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, SyncFailure{
		Op:        op,
		ProductID: productID,
		Time:      time.Now(),
		Reason:    err.Error(),
	})
	if len(s.failures) > maxSyncFailures {
		s.failures = s.failures[len(s.failures)-maxSyncFailures:]
	}
}

// persistLocked writes through to the state store. A persistence hiccup is
// logged and swallowed: in-memory state stays authoritative for this
// process either way.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.cart)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal cart state failed")
		return
	}
	if err := s.state.Put(ctx, stateKey, data); err != nil {
		s.log.Warn().Err(err).Msg("persisting cart state failed")
	}
}

func (s *Store) restore() {
	data, err := s.state.Get(context.Background(), stateKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("restoring persisted cart failed")
		}
		return
	}
	if err := json.Unmarshal(data, &s.cart); err != nil {
		s.log.Warn().Err(err).Msg("persisted cart is corrupt, starting empty")
		s.cart = domain.Cart{}
	}
}
