// Package checkout composes cart and session state into an order
// submission: shipping/payment selection, optional profile update, order
// placement and finalization. The cart is cleared only after the backend
// has durably accepted the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/pcforge/storefront/internal/api"
	"github.com/pcforge/storefront/internal/domain"
	"github.com/pcforge/storefront/internal/metrics"
)

var (
	// ErrEmptyCart guards checkout entry: nothing to order.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
	// ErrSubmissionInFlight rejects a duplicate submit while one is running.
	ErrSubmissionInFlight = errors.New("order submission already in flight")
	// ErrSubmissionFailed wraps any order placement failure; the cart is
	// untouched and the caller may retry.
	ErrSubmissionFailed = errors.New("order submission failed")
)

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "Card"
	PaymentTransfer PaymentMethod = "Transfer"
)

type ShippingOption struct {
	Name  string
	Price float64
}

// ShippingOptions are the methods offered at checkout.
var ShippingOptions = []ShippingOption{
	{Name: "Osobní odběr", Price: 0},
	{Name: "Zásilkovna", Price: 79},
	{Name: "Kurýr PPL", Price: 119},
}

// CartState is the slice of the cart store checkout reads and finalizes.
type CartState interface {
	Items() []domain.LineItem
	TotalPrice() float64
	SetShippingPrice(ctx context.Context, price float64) error
	Clear(ctx context.Context) error
}

// SessionState supplies the credential for authenticated checkout steps.
type SessionState interface {
	Token() (string, bool)
}

// CheckoutAPI is the slice of the backend client checkout needs.
type CheckoutAPI interface {
	UpdateProfile(ctx context.Context, token string, profile domain.Profile) error
	SubmitOrder(ctx context.Context, token string, order domain.OrderSubmission) error
	SaveCard(ctx context.Context, token, cardNumber, expiry string) error
	SavedCards(ctx context.Context, token string) ([]domain.SavedCard, error)
	Profile(ctx context.Context, token string) (*domain.Profile, error)
}

// Form carries everything the user selected on the checkout page.
type Form struct {
	Delivery      domain.Profile
	SaveToProfile bool
	Shipping      ShippingOption
	Payment       PaymentMethod
	// SavedCardID is nil when the user entered a new card.
	SavedCardID *int64
}

// Result reports a successfully placed order. When PromptCardSave is set the
// caller must confirm the card-save prompt and then call Finalize or
// SaveCardAndFinalize; otherwise the order is already finalized.
type Result struct {
	Order          domain.OrderSubmission
	PromptCardSave bool
	Finalized      bool
}

// Data prefills the checkout form for an authenticated user.
type Data struct {
	Profile    domain.Profile
	SavedCards []domain.SavedCard
}

type Orchestrator struct {
	cart     CartState
	session  SessionState
	api      CheckoutAPI
	gateway  PaymentGateway
	inFlight atomic.Bool
	log      zerolog.Logger
}

func NewOrchestrator(cart CartState, session SessionState, backend CheckoutAPI, gateway PaymentGateway, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cart:    cart,
		session: session,
		api:     backend,
		gateway: gateway,
		log:     log,
	}
}

// LoadData fetches saved cards and the delivery profile for prefill. For an
// anonymous session it returns empty data.
func (o *Orchestrator) LoadData(ctx context.Context) (*Data, error) {
	token, ok := o.session.Token()
	if !ok {
		return &Data{}, nil
	}

	cards, err := o.api.SavedCards(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load saved cards: %w", err)
	}
	profile, err := o.api.Profile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &Data{Profile: *profile, SavedCards: cards}, nil
}

// Submit runs the order flow. On failure the cart is unchanged and the user
// may retry; on success the cart is cleared unless the card-save prompt is
// pending.
func (o *Orchestrator) Submit(ctx context.Context, form Form) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer o.inFlight.Store(false)

	items := o.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := o.cart.SetShippingPrice(ctx, form.Shipping.Price); err != nil {
		return nil, fmt.Errorf("set shipping price: %w", err)
	}

	token, authenticated := o.session.Token()

	// Fire-and-forget relative to the order: a profile update failure must
	// not block the purchase.
	if form.SaveToProfile && authenticated {
		if err := o.api.UpdateProfile(ctx, token, form.Delivery); err != nil {
			o.log.Warn().Err(err).Msg("profile update before order failed")
		}
	}

	order := domain.OrderSubmission{
		Profile:        form.Delivery,
		ShippingMethod: form.Shipping.Name,
		PaymentMethod:  string(form.Payment),
		TotalAmount:    o.cart.TotalPrice(),
		Items:          orderItems(items),
	}

	if form.Payment == PaymentCard {
		if err := o.gateway.Authorize(ctx, order.TotalAmount); err != nil {
			metrics.OrdersSubmitted.WithLabelValues("payment_failed").Inc()
			return nil, fmt.Errorf("%w: payment authorization: %v", ErrSubmissionFailed, err)
		}
	}

	if err := o.api.SubmitOrder(ctx, token, order); err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) {
			metrics.OrdersSubmitted.WithLabelValues("rejected").Inc()
		} else {
			metrics.OrdersSubmitted.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	metrics.OrdersSubmitted.WithLabelValues("accepted").Inc()
	o.log.Info().Float64("total", order.TotalAmount).Str("payment", order.PaymentMethod).Msg("order accepted")

	result := &Result{Order: order}
	if form.Payment == PaymentCard && form.SavedCardID == nil && authenticated {
		result.PromptCardSave = true
		return result, nil
	}

	if err := o.Finalize(ctx); err != nil {
		return nil, err
	}
	result.Finalized = true
	return result, nil
}

// Finalize clears the cart. Only ever called after the backend accepted the
// order.
func (o *Orchestrator) Finalize(ctx context.Context) error {
	return o.cart.Clear(ctx)
}

// SaveCardAndFinalize persists the card used for this order, then finalizes.
// The card save is best effort: its failure never blocks finalization of an
// already accepted order.
func (o *Orchestrator) SaveCardAndFinalize(ctx context.Context, cardNumber, expiry string) error {
	if token, ok := o.session.Token(); ok {
		if err := o.api.SaveCard(ctx, token, cardNumber, expiry); err != nil {
			o.log.Warn().Err(err).Msg("saving card failed")
		}
	}
	return o.Finalize(ctx)
}

func orderItems(items []domain.LineItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.OrderItem{
			Product:  it.ProductID,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}
	return out
}
