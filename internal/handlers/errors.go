package handlers

import (
	"errors"
	"log"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

var statusByCode = map[string]int{
	apperrors.ErrInvalidAmount.Code:      fiber.StatusBadRequest,
	apperrors.ErrInvalidQuery.Code:       fiber.StatusBadRequest,
	apperrors.ErrInvalidRequest.Code:     fiber.StatusBadRequest,
	apperrors.ErrMalformedPayload.Code:   fiber.StatusBadRequest,
	apperrors.ErrSignatureMismatch.Code:  fiber.StatusBadRequest,
	apperrors.ErrInvalidCredentials.Code: fiber.StatusUnauthorized,
	apperrors.ErrUnauthorized.Code:       fiber.StatusUnauthorized,
	apperrors.ErrForbidden.Code:          fiber.StatusForbidden,
	apperrors.ErrOrderNotFound.Code:      fiber.StatusNotFound,
	apperrors.ErrReceiptNotFound.Code:    fiber.StatusNotFound,
	apperrors.ErrStoreNotFound.Code:      fiber.StatusNotFound,
	apperrors.ErrOrderNotPaid.Code:       fiber.StatusConflict,
	apperrors.ErrOrderFailed.Code:        fiber.StatusConflict,
	apperrors.ErrAlreadyUsed.Code:        fiber.StatusConflict,
	apperrors.ErrEmailTaken.Code:         fiber.StatusConflict,
	"STORE_CLOSED":                       fiber.StatusConflict,
	apperrors.ErrTimeout.Code:            fiber.StatusGatewayTimeout,
}

// writeError maps a service error onto the JSON error envelope. Anything
// that is not a domain error is logged and reported as a 500.
func writeError(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return response.Fail(c, status, de.Code, de.Message)
	}
	if apperrors.IsTimeout(err) {
		return response.Fail(c, fiber.StatusGatewayTimeout, apperrors.ErrTimeout.Code, apperrors.ErrTimeout.Message)
	}

	log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	return response.ServerError(c, "Internal server error")
}

func badBody(c *fiber.Ctx) error {
	return response.Fail(c, fiber.StatusBadRequest, apperrors.ErrInvalidRequest.Code, "Invalid request body")
}
