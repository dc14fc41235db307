package utils

import (
	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserClaims returns the claims the auth middleware stored for this request.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}
