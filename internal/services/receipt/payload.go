package receipt

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"
)

// Payload is the value encoded into the receipt QR code. It carries no
// secret: authority comes from looking up ReceiptID on the server.
type Payload struct {
	ReceiptID  string    `json:"receiptId"`
	Amount     int64     `json:"amount"`
	ItemsCount int       `json:"itemsCount"`
	PaidAt     time.Time `json:"paidAt"`
	Method     string    `json:"method"`
}

func NewPayload(r *models.Receipt) Payload {
	return Payload{
		ReceiptID:  r.ID,
		Amount:     r.Amount,
		ItemsCount: r.ItemsCount,
		PaidAt:     r.PaidAt.UTC(),
		Method:     r.Method,
	}
}

// Encode renders the payload as compact JSON.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type rawPayload struct {
	ReceiptID  *string `json:"receiptId"`
	Amount     *int64  `json:"amount"`
	ItemsCount *int    `json:"itemsCount"`
	PaidAt     *string `json:"paidAt"`
	Method     string  `json:"method"`
}

// ParsePayload validates the structure of a scanned payload. A payload
// without receiptId, amount or a parseable paidAt is malformed.
func ParsePayload(raw string) (*Payload, error) {
	var rp rawPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &rp); err != nil {
		return nil, apperrors.ErrMalformedPayload
	}
	if rp.ReceiptID == nil || strings.TrimSpace(*rp.ReceiptID) == "" {
		return nil, apperrors.ErrMalformedPayload
	}
	if rp.Amount == nil || *rp.Amount <= 0 {
		return nil, apperrors.ErrMalformedPayload
	}
	if rp.PaidAt == nil {
		return nil, apperrors.ErrMalformedPayload
	}
	paidAt, err := time.Parse(time.RFC3339, *rp.PaidAt)
	if err != nil {
		return nil, apperrors.ErrMalformedPayload
	}

	p := &Payload{
		ReceiptID: *rp.ReceiptID,
		Amount:    *rp.Amount,
		PaidAt:    paidAt,
		Method:    rp.Method,
	}
	if rp.ItemsCount != nil {
		p.ItemsCount = *rp.ItemsCount
	}
	return p, nil
}
