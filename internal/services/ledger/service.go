// Package ledger tracks orders from checkout to a verified payment.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/events"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/provider"
	"scanpay/internal/utils/retry"

	nanoid "github.com/jaevor/go-nanoid"
)

const DefaultTimeout = 10 * time.Second

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Service interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error)
	ConfirmOrder(ctx context.Context, in ConfirmInput) (*ConfirmResult, error)
	SettleProviderPayment(ctx context.Context, payment provider.Payment) (*ConfirmResult, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ReconcileStale(ctx context.Context, olderThan time.Duration) (*ReconcileReport, error)
}

// StoreLookup resolves the store an order is placed at.
type StoreLookup interface {
	GetByID(ctx context.Context, id string) (*models.Store, error)
}

type service struct {
	orders    repositories.OrderRepository
	stores    StoreLookup
	gateway   provider.Gateway
	publisher events.Publisher
	metrics   *metrics.Metrics
	config    Config
	newRef    func() string
	now       func() time.Time
}

// NewService creates the order ledger. publisher and m may be nil.
func NewService(
	orders repositories.OrderRepository,
	stores StoreLookup,
	gateway provider.Gateway,
	publisher events.Publisher,
	m *metrics.Metrics,
	config Config,
) Service {
	if orders == nil {
		panic("order repository is required")
	}
	if gateway == nil {
		panic("payment gateway is required")
	}
	if config.SigningSecret == "" {
		panic("signing secret is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "INR"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Retry.Attempts == 0 {
		config.Retry = retry.Policy{Attempts: 3, Backoff: 200 * time.Millisecond}
	}

	gen, err := nanoid.Standard(21)
	if err != nil {
		panic(fmt.Sprintf("nanoid generator: %v", err))
	}

	return &service{
		orders:    orders,
		stores:    stores,
		gateway:   gateway,
		publisher: publisher,
		metrics:   m,
		config:    config,
		newRef:    gen,
		now:       time.Now,
	}
}

func (s *service) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if in.Amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if in.Currency == "" {
		in.Currency = s.config.DefaultCurrency
	}
	if !currencyPattern.MatchString(in.Currency) {
		return nil, apperrors.New("INVALID_REQUEST", "currency must be a 3-letter ISO code")
	}
	if in.ItemsCount == 0 {
		in.ItemsCount = 1
	}
	if in.ItemsCount < 0 {
		return nil, apperrors.New("INVALID_REQUEST", "itemsCount must be positive")
	}

	if in.StoreID != "" && s.stores != nil {
		store, err := s.stores.GetByID(ctx, in.StoreID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, apperrors.ErrStoreNotFound
			}
			return nil, fmt.Errorf("lookup store: %w", err)
		}
		if !store.IsOpen() {
			return nil, apperrors.New("STORE_CLOSED", "store is closed")
		}
	}

	reference := s.newRef()
	var providerOrder *provider.Order
	err := s.call(ctx, "provider create order", func(ctx context.Context) error {
		var err error
		providerOrder, err = s.gateway.CreateOrder(ctx, in.Amount, in.Currency, reference)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create provider order: %w", err)
	}

	order := &models.Order{
		ID:         providerOrder.ID,
		Amount:     in.Amount,
		Currency:   in.Currency,
		ItemsCount: in.ItemsCount,
		Status:     models.OrderStatusCreated,
		StoreID:    in.StoreID,
		CustomerID: in.CustomerID,
	}
	attempts := 0
	if err := s.call(ctx, "create order", func(ctx context.Context) error {
		attempts++
		err := s.orders.Create(ctx, order)
		if attempts > 1 && errors.Is(err, repositories.ErrDuplicate) {
			// An earlier attempt committed before its timeout fired.
			return nil
		}
		return err
	}); err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}

	s.metrics.RecordOrderCreated(order.Currency)
	log.Printf("Order %s created: amount=%d %s items=%d", order.ID, order.Amount, order.Currency, order.ItemsCount)

	return &CreateOrderResult{
		OrderID:     order.ID,
		ProviderKey: s.gateway.KeyID(),
		Amount:      order.Amount,
		Currency:    order.Currency,
	}, nil
}

// ConfirmOrder checks the provider signature and moves the order to paid.
// A mismatch returns Verified=false together with ErrSignatureMismatch and
// leaves the order untouched.
func (s *service) ConfirmOrder(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	if in.OrderID == "" || in.ProviderPaymentID == "" || in.ProviderSignature == "" {
		return nil, apperrors.New("INVALID_REQUEST", "orderId, providerPaymentId and providerSignature are required")
	}

	order, err := s.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if in.CustomerID != "" && order.CustomerID != "" && order.CustomerID != in.CustomerID {
		return nil, apperrors.ErrOrderNotFound
	}

	if !provider.VerifySignature(s.config.SigningSecret, in.OrderID, in.ProviderPaymentID, in.ProviderSignature) {
		s.metrics.RecordConfirmation(false)
		log.Printf("Signature mismatch for order %s", in.OrderID)
		return &ConfirmResult{Verified: false, Order: order}, apperrors.ErrSignatureMismatch
	}

	return s.settle(ctx, order, in.ProviderPaymentID, in.Method)
}

// SettleProviderPayment marks an order paid on the provider's own word, such
// as a signed Stripe webhook. It shares the paid transition with ConfirmOrder.
func (s *service) SettleProviderPayment(ctx context.Context, payment provider.Payment) (*ConfirmResult, error) {
	if payment.OrderID == "" || payment.PaymentID == "" {
		return nil, apperrors.New("INVALID_REQUEST", "provider payment is missing its order or payment id")
	}

	order, err := s.GetOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, order, payment.PaymentID, payment.Method)
}

// settle moves a created order to paid exactly once and publishes order.paid
// for the call that made the transition.
func (s *service) settle(ctx context.Context, order *models.Order, paymentID, method string) (*ConfirmResult, error) {
	switch order.Status {
	case models.OrderStatusPaid:
		return s.alreadyPaid(order, paymentID)
	case models.OrderStatusFailed:
		return &ConfirmResult{Verified: false, Order: order}, apperrors.ErrOrderFailed
	}

	if method == "" {
		method = s.gateway.Name()
	}
	// Postgres keeps microseconds; truncating lets a retry recognise its own write.
	paidAt := s.now().UTC().Truncate(time.Microsecond)

	var updated bool
	if err := s.call(ctx, "mark order paid", func(ctx context.Context) error {
		var err error
		updated, err = s.orders.MarkPaid(ctx, order.ID, paymentID, method, paidAt)
		return err
	}); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	if !updated {
		current, err := s.GetOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if !ownWrite(current, paymentID, paidAt) {
			// Lost a race with a concurrent confirm or the reconciler.
			if current.IsPaid() {
				return s.alreadyPaid(current, paymentID)
			}
			return &ConfirmResult{Verified: false, Order: current}, apperrors.ErrOrderFailed
		}
		// A timed-out attempt committed; this call still owns the transition.
	}

	order.Status = models.OrderStatusPaid
	order.ProviderPaymentID = paymentID
	order.Method = method
	order.PaidAt = &paidAt

	s.metrics.RecordConfirmation(true)
	log.Printf("Order %s paid via %s (payment %s)", order.ID, method, paymentID)
	events.PublishAsync(s.publisher, events.Event{
		Type:     events.TopicOrderPaid,
		OrderID:  order.ID,
		StoreID:  order.StoreID,
		Amount:   order.Amount,
		Currency: order.Currency,
	})

	return &ConfirmResult{Verified: true, Order: order}, nil
}

func ownWrite(order *models.Order, paymentID string, paidAt time.Time) bool {
	return order.IsPaid() &&
		order.ProviderPaymentID == paymentID &&
		order.PaidAt != nil &&
		order.PaidAt.Equal(paidAt)
}

// alreadyPaid handles a replayed confirmation. Only the payment that paid the
// order verifies again.
func (s *service) alreadyPaid(order *models.Order, paymentID string) (*ConfirmResult, error) {
	if order.ProviderPaymentID != paymentID {
		s.metrics.RecordConfirmation(false)
		return &ConfirmResult{Verified: false, Order: order}, apperrors.ErrSignatureMismatch
	}
	return &ConfirmResult{Verified: true, Order: order}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order *models.Order
	err := s.call(ctx, "get order", func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// call runs fn under the configured timeout, retrying timeouts.
func (s *service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.config.Retry, op, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
		return fn(cctx)
	})
}
