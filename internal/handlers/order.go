package handlers

import (
	"errors"
	"log"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/services/ledger"
	"scanpay/internal/services/receipt"
	"scanpay/internal/utils"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	ledger ledger.Service
	issuer receipt.Service
}

func NewOrderHandler(ledgerService ledger.Service, issuer receipt.Service) *OrderHandler {
	return &OrderHandler{
		ledger: ledgerService,
		issuer: issuer,
	}
}

// CreateOrder opens a provider order for checkout.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount     int64  `json:"amount"`
		Currency   string `json:"currency"`
		ItemsCount int    `json:"itemsCount"`
		StoreID    string `json:"storeId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	result, err := h.ledger.CreateOrder(c.UserContext(), ledger.CreateOrderInput{
		Amount:     input.Amount,
		Currency:   input.Currency,
		ItemsCount: input.ItemsCount,
		StoreID:    input.StoreID,
		CustomerID: claims.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Order created", result)
}

// ConfirmOrder verifies the provider signature. On success the receipt is
// issued right away; if that fails the client can still fetch it later
// through GET /api/receipts/:orderId.
func (h *OrderHandler) ConfirmOrder(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		OrderID           string `json:"orderId"`
		ProviderPaymentID string `json:"providerPaymentId"`
		ProviderSignature string `json:"providerSignature"`
		Method            string `json:"method"`
	}
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	result, err := h.ledger.ConfirmOrder(c.UserContext(), ledger.ConfirmInput{
		OrderID:           input.OrderID,
		ProviderPaymentID: input.ProviderPaymentID,
		ProviderSignature: input.ProviderSignature,
		Method:            input.Method,
		CustomerID:        claims.UserID,
	})
	if errors.Is(err, apperrors.ErrSignatureMismatch) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    apperrors.ErrSignatureMismatch.Message,
			"code":     apperrors.ErrSignatureMismatch.Code,
			"verified": false,
		})
	}
	if err != nil {
		return writeError(c, err)
	}

	data := fiber.Map{"verified": result.Verified}
	if result.Verified {
		r, err := h.issuer.Issue(c.UserContext(), result.Order)
		if err != nil {
			log.Printf("Receipt issue after confirm failed for order %s: %v", input.OrderID, err)
		} else {
			data["receiptId"] = r.ID
		}
	}

	return response.Success(c, "Payment verified", data)
}
