package models

import "time"

// Receipt is the single-use proof of payment shown at the exit gate.
// Consumed only ever moves from false to true.
type Receipt struct {
	ID              string     `gorm:"primaryKey;column:receipt_id" json:"receiptId"`
	OrderID         string     `gorm:"uniqueIndex;not null" json:"orderId"`
	StoreID         string     `gorm:"index" json:"storeId,omitempty"`
	Amount          int64      `gorm:"not null" json:"amount"`
	Currency        string     `gorm:"size:3" json:"currency"`
	ItemsCount      int        `gorm:"not null" json:"itemsCount"`
	Method          string     `json:"method"`
	PaidAt          time.Time  `gorm:"not null" json:"paidAt"`
	IssuedAt        time.Time  `gorm:"not null" json:"issuedAt"`
	Consumed        bool       `gorm:"not null;default:false" json:"consumed"`
	ConsumedAt      *time.Time `gorm:"index" json:"consumedAt,omitempty"`
	ConsumedBy      *string    `json:"consumedBy,omitempty"`
	ConsumedStoreID *string    `gorm:"index" json:"consumedStoreId,omitempty"`
}

// ConsumeRequest carries who consumed a receipt and when.
type ConsumeRequest struct {
	ReceiptID string
	StaffID   string
	StoreID   string
	At        time.Time
}
