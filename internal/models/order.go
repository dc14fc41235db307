package models

import "time"

const (
	OrderStatusCreated = "created"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

// Order is a single checkout attempt. A retried checkout creates a new Order.
type Order struct {
	ID                string     `gorm:"primaryKey" json:"orderId"`
	Amount            int64      `gorm:"not null" json:"amount"`
	Currency          string     `gorm:"not null;size:3" json:"currency"`
	ItemsCount        int        `gorm:"not null;default:1" json:"itemsCount"`
	Status            string     `gorm:"not null;default:'created';index:idx_orders_status_created" json:"status"`
	StoreID           string     `gorm:"index" json:"storeId,omitempty"`
	CustomerID        string     `gorm:"index" json:"customerId,omitempty"`
	ProviderPaymentID string     `json:"providerPaymentId,omitempty"`
	Method            string     `json:"method,omitempty"`
	PaidAt            *time.Time `json:"paidAt,omitempty"`
	CreatedAt         time.Time  `gorm:"index:idx_orders_status_created" json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}
