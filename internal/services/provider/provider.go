// Package provider talks to the external payment provider that mints
// provider-side order ids and signs payment confirmations.
package provider

import (
	"context"
	"time"

	"scanpay/internal/metrics"

	"golang.org/x/time/rate"
)

// Provider-side order states.
const (
	StatusCreated = "created"
	StatusPaid    = "paid"
	StatusExpired = "expired"
)

type Order struct {
	ID        string
	Amount    int64
	Currency  string
	Status    string
	PaymentID string
}

// Payment is a payment the provider attested for one of our orders.
type Payment struct {
	OrderID   string
	PaymentID string
	Method    string
}

type Gateway interface {
	Name() string
	// KeyID is the public key the client uses to open the provider checkout.
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, reference string) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

type instrumented struct {
	Gateway
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// WithLimits throttles outbound calls to perSecond and records their latency.
func WithLimits(gw Gateway, perSecond int, m *metrics.Metrics) Gateway {
	if perSecond <= 0 {
		perSecond = 25
	}
	return &instrumented{
		Gateway: gw,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		metrics: m,
	}
}

func (g *instrumented) CreateOrder(ctx context.Context, amount int64, currency, reference string) (*Order, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	order, err := g.Gateway.CreateOrder(ctx, amount, currency, reference)
	g.metrics.ObserveProvider("create_order", err, time.Since(start).Seconds())
	return order, err
}

func (g *instrumented) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	order, err := g.Gateway.FetchOrder(ctx, orderID)
	g.metrics.ObserveProvider("fetch_order", err, time.Since(start).Seconds())
	return order, err
}
