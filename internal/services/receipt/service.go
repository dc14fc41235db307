// Package receipt issues single-use receipts for paid orders.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/events"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/utils/retry"

	nanoid "github.com/jaevor/go-nanoid"
)

// IDLength gives 126 bits of entropy with the URL-safe alphabet.
const IDLength = 21

type Service interface {
	// Issue returns the receipt for a paid order, minting it on first call.
	Issue(ctx context.Context, order *models.Order) (*models.Receipt, error)
	// IssueByOrderID is the issue-or-fetch recovery path. A non-empty
	// customerID must own the order.
	IssueByOrderID(ctx context.Context, orderID, customerID string) (*models.Receipt, error)
}

// OrderReader loads orders for IssueByOrderID.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

type Config struct {
	Timeout time.Duration
	Retry   retry.Policy
}

type service struct {
	receipts  repositories.ReceiptRepository
	orders    OrderReader
	publisher events.Publisher
	metrics   *metrics.Metrics
	config    Config
	newID     func() string
	now       func() time.Time
}

func NewService(
	receipts repositories.ReceiptRepository,
	orders OrderReader,
	publisher events.Publisher,
	m *metrics.Metrics,
	config Config,
) Service {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Retry.Attempts == 0 {
		config.Retry = retry.Policy{Attempts: 3, Backoff: 200 * time.Millisecond}
	}

	gen, err := nanoid.Standard(IDLength)
	if err != nil {
		panic(fmt.Sprintf("nanoid generator: %v", err))
	}

	return &service{
		receipts:  receipts,
		orders:    orders,
		publisher: publisher,
		metrics:   m,
		config:    config,
		newID:     gen,
		now:       time.Now,
	}
}

func (s *service) Issue(ctx context.Context, order *models.Order) (*models.Receipt, error) {
	if order == nil || !order.IsPaid() {
		return nil, apperrors.ErrOrderNotPaid
	}

	var existing *models.Receipt
	err := s.call(ctx, "get receipt", func(ctx context.Context) error {
		var err error
		existing, err = s.receipts.GetByOrderID(ctx, order.ID)
		return err
	})
	if err == nil {
		s.metrics.RecordReceiptIssued(false)
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("lookup receipt: %w", err)
	}

	paidAt := s.now().UTC()
	if order.PaidAt != nil {
		paidAt = order.PaidAt.UTC()
	}
	candidate := &models.Receipt{
		ID:         s.newID(),
		OrderID:    order.ID,
		StoreID:    order.StoreID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		ItemsCount: order.ItemsCount,
		Method:     order.Method,
		PaidAt:     paidAt,
		IssuedAt:   s.now().UTC(),
	}

	var (
		receipt *models.Receipt
		created bool
	)
	if err := s.call(ctx, "create receipt", func(ctx context.Context) error {
		var err error
		receipt, created, err = s.receipts.CreateOrGet(ctx, candidate)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}

	s.metrics.RecordReceiptIssued(created)
	if created {
		log.Printf("Receipt %s issued for order %s", receipt.ID, order.ID)
		events.PublishAsync(s.publisher, events.Event{
			Type:      events.TopicReceiptIssued,
			OrderID:   order.ID,
			ReceiptID: receipt.ID,
			StoreID:   receipt.StoreID,
			Amount:    receipt.Amount,
			Currency:  receipt.Currency,
		})
	}
	return receipt, nil
}

func (s *service) IssueByOrderID(ctx context.Context, orderID, customerID string) (*models.Receipt, error) {
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
	if customerID != "" && order.CustomerID != "" && order.CustomerID != customerID {
		return nil, apperrors.ErrOrderNotFound
	}
	return s.Issue(ctx, order)
}

func (s *service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.config.Retry, op, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
		return fn(cctx)
	})
}
