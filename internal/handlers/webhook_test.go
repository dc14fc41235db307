package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/ledger"
	"scanpay/internal/services/provider"
	"scanpay/internal/services/receipt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72/webhook"
)

const testWebhookSecret = "whsec_test"

func succeededEvent(intentID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded",
		"data":{"object":{"id":%q,"object":"payment_intent","amount":499,"currency":"inr","status":"succeeded",
		"payment_method_types":["card"],"charges":{"object":"list","data":[{"id":"ch_1","object":"charge"}]}}}}`, intentID))
}

type webhookResult struct {
	Status    int
	Code      string
	Verified  bool
	ReceiptID string
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte, secret string) webhookResult {
	t.Helper()
	now := time.Now()
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(webhook.ComputeSignature(now, payload, secret)))

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", header)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Code string `json:"code"`
		Data struct {
			Verified  bool   `json:"verified"`
			ReceiptID string `json:"receiptId"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return webhookResult{Status: resp.StatusCode, Code: body.Code, Verified: body.Data.Verified, ReceiptID: body.Data.ReceiptID}
}

func newWebhookApp(t *testing.T) (*fiber.App, *repositories.InMemoryStore) {
	t.Helper()
	mem := repositories.NewInMemoryStore()
	sandbox, err := provider.NewSandboxGateway("key", "signing-secret")
	require.NoError(t, err)

	ledgerService := ledger.NewService(mem.Orders(), mem.Stores(), sandbox, nil, nil, ledger.Config{SigningSecret: "signing-secret"})
	issuer := receipt.NewService(mem.Receipts(), mem.Orders(), nil, nil, receipt.Config{})
	h := NewWebhookHandler(provider.NewStripeGateway("sk_test", "pk_test", testWebhookSecret), ledgerService, issuer)

	app := fiber.New()
	app.Post("/webhook", h.Stripe)
	return app, mem
}

func TestStripeWebhookSettlesOrder(t *testing.T) {
	app, mem := newWebhookApp(t)
	ctx := context.Background()
	require.NoError(t, mem.Orders().Create(ctx, &models.Order{
		ID: "pi_123", Amount: 499, Currency: "INR", ItemsCount: 1, Status: models.OrderStatusCreated, StoreID: "store-1",
	}))

	first := postWebhook(t, app, succeededEvent("pi_123"), testWebhookSecret)
	assert.Equal(t, fiber.StatusOK, first.Status)
	assert.True(t, first.Verified)
	assert.NotEmpty(t, first.ReceiptID)

	order, err := mem.Orders().GetByID(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "ch_1", order.ProviderPaymentID)
	assert.Equal(t, "card", order.Method)

	redelivered := postWebhook(t, app, succeededEvent("pi_123"), testWebhookSecret)
	assert.Equal(t, fiber.StatusOK, redelivered.Status)
	assert.True(t, redelivered.Verified)
	assert.Equal(t, first.ReceiptID, redelivered.ReceiptID)
}

func TestStripeWebhookRejectsForgedEvents(t *testing.T) {
	app, mem := newWebhookApp(t)
	ctx := context.Background()
	require.NoError(t, mem.Orders().Create(ctx, &models.Order{ID: "pi_123", Amount: 499, Status: models.OrderStatusCreated}))

	res := postWebhook(t, app, succeededEvent("pi_123"), "whsec_forged")
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
	assert.Equal(t, "SIGNATURE_MISMATCH", res.Code)

	order, err := mem.Orders().GetByID(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
}

func TestStripeWebhookAcknowledgesUnknownOrders(t *testing.T) {
	app, _ := newWebhookApp(t)

	res := postWebhook(t, app, succeededEvent("pi_elsewhere"), testWebhookSecret)
	assert.Equal(t, fiber.StatusOK, res.Status)
	assert.False(t, res.Verified)
}
