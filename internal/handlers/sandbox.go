package handlers

import (
	"errors"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/services/provider"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// SandboxHandler stands in for the provider's checkout UI during development.
type SandboxHandler struct {
	gateway *provider.SandboxGateway
}

func NewSandboxHandler(gateway *provider.SandboxGateway) *SandboxHandler {
	return &SandboxHandler{gateway: gateway}
}

// Pay marks the sandbox order paid and returns what the checkout UI would
// hand back to the app.
func (h *SandboxHandler) Pay(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	paymentID, signature, err := h.gateway.Pay(orderID)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownOrder) {
			return writeError(c, apperrors.ErrOrderNotFound)
		}
		return writeError(c, err)
	}

	return response.Success(c, "Sandbox payment captured", fiber.Map{
		"orderId":           orderID,
		"providerPaymentId": paymentID,
		"providerSignature": signature,
	})
}
