package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

const eventPaymentSucceeded = "payment_intent.succeeded"

var ErrWebhookSignature = errors.New("provider: invalid webhook signature")

// StripeGateway mints orders as Stripe PaymentIntents. Payments are confirmed
// through signed webhooks rather than the client-side signature.
type StripeGateway struct {
	api           *client.API
	keyID         string
	webhookSecret string
}

func NewStripeGateway(secretKey, publishableKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, keyID: publishableKey, webhookSecret: webhookSecret}
}

func (g *StripeGateway) Name() string  { return "stripe" }
func (g *StripeGateway) KeyID() string { return g.keyID }

func (g *StripeGateway) CreateOrder(ctx context.Context, amount int64, currency, reference string) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(reference)
	params.AddMetadata("reference", reference)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return fromPaymentIntent(pi), nil
}

func (g *StripeGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(orderID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}
	return fromPaymentIntent(pi), nil
}

func fromPaymentIntent(pi *stripe.PaymentIntent) *Order {
	order := &Order{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: strings.ToUpper(string(pi.Currency)),
		Status:   StatusCreated,
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		order.Status = StatusPaid
		if pi.Charges != nil && len(pi.Charges.Data) > 0 {
			order.PaymentID = pi.Charges.Data[0].ID
		}
	case stripe.PaymentIntentStatusCanceled:
		order.Status = StatusExpired
	}
	return order
}

// ParseWebhook checks the Stripe-Signature header and returns the payment a
// payment_intent.succeeded event carries. Other events yield a nil Payment.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Payment, error) {
	if g.webhookSecret == "" {
		return nil, ErrWebhookSignature
	}
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	if event.Type != eventPaymentSucceeded || event.Data == nil {
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	order := fromPaymentIntent(&pi)
	if order.Status != StatusPaid {
		return nil, nil
	}

	payment := &Payment{OrderID: pi.ID, PaymentID: order.PaymentID, Method: "stripe"}
	if payment.PaymentID == "" {
		payment.PaymentID = pi.ID
	}
	if len(pi.PaymentMethodTypes) > 0 {
		payment.Method = pi.PaymentMethodTypes[0]
	}
	return payment, nil
}
