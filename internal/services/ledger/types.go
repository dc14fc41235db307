package ledger

import (
	"time"

	"scanpay/internal/models"
	"scanpay/internal/utils/retry"
)

type Config struct {
	SigningSecret   string
	DefaultCurrency string
	// Timeout bounds every provider and store call.
	Timeout time.Duration
	Retry   retry.Policy
}

type CreateOrderInput struct {
	Amount     int64
	Currency   string
	ItemsCount int
	StoreID    string
	CustomerID string
}

type CreateOrderResult struct {
	OrderID     string `json:"orderId"`
	ProviderKey string `json:"providerKey"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type ConfirmInput struct {
	OrderID           string
	ProviderPaymentID string
	ProviderSignature string
	Method            string
	CustomerID        string
}

type ConfirmResult struct {
	Verified bool          `json:"verified"`
	Order    *models.Order `json:"-"`
}

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Checked         int `json:"checked"`
	Failed          int `json:"failed"`
	PaidUnconfirmed int `json:"paidUnconfirmed"`
	Pending         int `json:"pending"`
	Errors          int `json:"errors"`
}
