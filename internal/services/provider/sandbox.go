package provider

import (
	"context"
	"errors"
	"sync"

	nanoid "github.com/jaevor/go-nanoid"
)

var ErrUnknownOrder = errors.New("provider: unknown order")

// SandboxGateway is an in-process provider for development and tests. It
// signs payments with the same secret the ledger verifies with.
type SandboxGateway struct {
	secret string
	keyID  string
	newID  func() string
	orders map[string]*Order
	mutex  sync.Mutex
}

func NewSandboxGateway(keyID, secret string) (*SandboxGateway, error) {
	gen, err := nanoid.Standard(14)
	if err != nil {
		return nil, err
	}
	return &SandboxGateway{
		secret: secret,
		keyID:  keyID,
		newID:  gen,
		orders: make(map[string]*Order),
	}, nil
}

func (g *SandboxGateway) Name() string  { return "sandbox" }
func (g *SandboxGateway) KeyID() string { return g.keyID }

func (g *SandboxGateway) CreateOrder(ctx context.Context, amount int64, currency, _ string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()

	order := &Order{
		ID:       "order_" + g.newID(),
		Amount:   amount,
		Currency: currency,
		Status:   StatusCreated,
	}
	g.orders[order.ID] = order
	cp := *order
	return &cp, nil
}

func (g *SandboxGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	cp := *order
	return &cp, nil
}

// Pay simulates the shopper completing checkout. It returns the provider
// payment id and the signature the client would forward to the server.
func (g *SandboxGateway) Pay(orderID string) (paymentID, signature string, err error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return "", "", ErrUnknownOrder
	}
	if order.PaymentID == "" {
		order.PaymentID = "pay_" + g.newID()
		order.Status = StatusPaid
	}
	return order.PaymentID, Sign(g.secret, orderID, order.PaymentID), nil
}

// Expire marks an unpaid order as abandoned at the provider.
func (g *SandboxGateway) Expire(orderID string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return ErrUnknownOrder
	}
	if order.Status == StatusCreated {
		order.Status = StatusExpired
	}
	return nil
}
