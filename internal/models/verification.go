package models

import "time"

type VerificationOutcome string

const (
	OutcomeValid       VerificationOutcome = "valid"
	OutcomeInvalid     VerificationOutcome = "invalid"
	OutcomeAlreadyUsed VerificationOutcome = "already-used"
)

// Reasons attached to non-valid outcomes.
const (
	ReasonUnknownReceipt = "unknown_receipt"
	ReasonForeignStore   = "foreign_store"
	ReasonTimeout        = "timeout"
	ReasonMalformed      = "malformed"
)

// VerificationRecord is an append-only audit entry, one per scan attempt.
type VerificationRecord struct {
	ID        string              `gorm:"primaryKey;type:uuid" json:"id"`
	ReceiptID string              `gorm:"index;not null" json:"receiptId"`
	StaffID   string              `gorm:"index" json:"staffId"`
	StoreID   string              `gorm:"index" json:"storeId"`
	Outcome   VerificationOutcome `gorm:"not null" json:"outcome"`
	Reason    string              `json:"reason,omitempty"`
	CreatedAt time.Time           `gorm:"index" json:"timestamp"`
}
