package handlers

import (
	"scanpay/internal/services/receipt"
	"scanpay/internal/services/verification"
	"scanpay/internal/utils"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ReceiptHandler struct {
	issuer   receipt.Service
	verifier verification.Service
}

func NewReceiptHandler(issuer receipt.Service, verifier verification.Service) *ReceiptHandler {
	return &ReceiptHandler{
		issuer:   issuer,
		verifier: verifier,
	}
}

// GetReceipt returns the receipt for a paid order, issuing it if needed.
// The qr field holds the exact string to encode in the QR code.
func (h *ReceiptHandler) GetReceipt(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	r, err := h.issuer.IssueByOrderID(c.UserContext(), c.Params("orderId"), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}

	payload := receipt.NewPayload(r)
	encoded, err := payload.Encode()
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Receipt retrieved", fiber.Map{
		"receiptId":  payload.ReceiptID,
		"amount":     payload.Amount,
		"itemsCount": payload.ItemsCount,
		"paidAt":     payload.PaidAt,
		"method":     payload.Method,
		"qr":         encoded,
	})
}

// VerifyReceipt consumes a receipt at the exit gate.
func (h *ReceiptHandler) VerifyReceipt(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	result, err := h.verifier.Verify(c.UserContext(), c.Params("receiptId"), verification.Staff{
		UserID:  claims.UserID,
		StoreID: claims.StoreID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Receipt verified", result)
}
