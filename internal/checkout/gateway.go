package checkout

import (
	"context"
	"time"
)

// PaymentGateway authorizes a card payment before the order is submitted.
// The real integration is out of scope; implementations must treat a context
// cancellation as a failed authorization.
type PaymentGateway interface {
	Authorize(ctx context.Context, amount float64) error
}

// SimulatedGateway stands in for the card processor: it waits a fixed delay
// and approves. Declines and timeouts are the real gateway's problem.
type SimulatedGateway struct {
	Delay time.Duration
}

func (g SimulatedGateway) Authorize(ctx context.Context, _ float64) error {
	timer := time.NewTimer(g.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
