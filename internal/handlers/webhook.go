package handlers

import (
	"errors"
	"log"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/services/ledger"
	"scanpay/internal/services/provider"
	"scanpay/internal/services/receipt"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// WebhookParser authenticates a provider callback and extracts the payment it
// reports. A nil Payment means the event is not a completed payment.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*provider.Payment, error)
}

type WebhookHandler struct {
	parser WebhookParser
	ledger ledger.Service
	issuer receipt.Service
}

func NewWebhookHandler(parser WebhookParser, ledgerService ledger.Service, issuer receipt.Service) *WebhookHandler {
	return &WebhookHandler{
		parser: parser,
		ledger: ledgerService,
		issuer: issuer,
	}
}

// Stripe settles orders from payment_intent.succeeded events. Errors that a
// redelivery cannot fix are acknowledged with 200 so Stripe stops retrying.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	payment, err := h.parser.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if errors.Is(err, provider.ErrWebhookSignature) {
		log.Printf("Rejected Stripe webhook: %v", err)
		return response.Fail(c, fiber.StatusBadRequest, apperrors.ErrSignatureMismatch.Code, apperrors.ErrSignatureMismatch.Message)
	}
	if err != nil {
		return badBody(c)
	}
	if payment == nil {
		return response.Success(c, "Webhook ignored", fiber.Map{"received": true})
	}

	result, err := h.ledger.SettleProviderPayment(c.UserContext(), *payment)
	switch {
	case errors.Is(err, apperrors.ErrOrderNotFound),
		errors.Is(err, apperrors.ErrOrderFailed),
		errors.Is(err, apperrors.ErrSignatureMismatch):
		log.Printf("Stripe payment %s for order %s not applied: %v", payment.PaymentID, payment.OrderID, err)
		return response.Success(c, "Webhook acknowledged", fiber.Map{"received": true, "verified": false})
	case err != nil:
		return writeError(c, err)
	}

	data := fiber.Map{"received": true, "verified": result.Verified}
	if r, err := h.issuer.Issue(c.UserContext(), result.Order); err != nil {
		log.Printf("Receipt issue after webhook failed for order %s: %v", payment.OrderID, err)
	} else {
		data["receiptId"] = r.ID
	}

	return response.Success(c, "Webhook processed", data)
}
