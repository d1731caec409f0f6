package cart

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pcforge/storefront/internal/domain"
)

// cartAPI is the slice of the backend client the remote adapter needs.
type cartAPI interface {
	FetchCart(ctx context.Context, token string) ([]domain.LineItem, error)
	AddCartItem(ctx context.Context, token string, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, token string, productID int64) error
}

// Remote adapts the API client to RemoteCart behind a circuit breaker, so a
// backend outage fails the best-effort sync fast instead of stalling every
// cart mutation for a full request timeout.
type Remote struct {
	api cartAPI
	cb  *gobreaker.CircuitBreaker[[]domain.LineItem]
}

func NewRemote(api cartAPI, log zerolog.Logger) *Remote {
	settings := gobreaker.Settings{
		Name:        "cart-sync",
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("cart sync breaker state changed")
		},
	}
	return &Remote{
		api: api,
		cb:  gobreaker.NewCircuitBreaker[[]domain.LineItem](settings),
	}
}

func (r *Remote) Fetch(ctx context.Context, token string) ([]domain.LineItem, error) {
	return r.cb.Execute(func() ([]domain.LineItem, error) {
		return r.api.FetchCart(ctx, token)
	})
}

func (r *Remote) Add(ctx context.Context, token string, productID int64, quantity int) error {
	_, err := r.cb.Execute(func() ([]domain.LineItem, error) {
		return nil, r.api.AddCartItem(ctx, token, productID, quantity)
	})
	return err
}

func (r *Remote) Remove(ctx context.Context, token string, productID int64) error {
	_, err := r.cb.Execute(func() ([]domain.LineItem, error) {
		return nil, r.api.RemoveCartItem(ctx, token, productID)
	})
	return err
}
