// Package events publishes pipeline domain events.
package events

import (
	"context"
	"log"
	"time"
)

// Topics.
const (
	TopicOrderPaid       = "order.paid"
	TopicReceiptIssued   = "receipt.issued"
	TopicReceiptVerified = "receipt.verified"
)

type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId,omitempty"`
	ReceiptID  string    `json:"receiptId,omitempty"`
	StoreID    string    `json:"storeId,omitempty"`
	StaffID    string    `json:"staffId,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Key is the partition key. Events for one order land on one partition.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.ReceiptID
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops events after logging them.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, event Event) error {
	log.Printf("event %s (order=%s receipt=%s)", event.Type, event.OrderID, event.ReceiptID)
	return nil
}

func (NoopPublisher) Close() error { return nil }

// PublishAsync sends event without blocking the caller. Failures are logged.
func PublishAsync(p Publisher, event Event) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			log.Printf("Failed to publish %s event: %v", event.Type, err)
		}
	}()
}
