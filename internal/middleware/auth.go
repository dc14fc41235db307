// Package middleware provides HTTP middleware for authentication and
// authorization on top of fiber.
package middleware

import (
	"log"
	"strings"

	"scanpay/internal/utils"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware handles JWT validation for protected routes.
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Handler validates the bearer token and stores the claims in c.Locals("claims").
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Println("Invalid Authorization format")
		return response.Unauthorized(c)
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	_, claims, err := utils.ParseToken(tokenString, m.jwtSecret)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return response.Unauthorized(c)
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// RequireRole rejects requests whose token was issued for another role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return response.Unauthorized(c)
		}
		if claims.Role != role {
			log.Printf("Access denied: user %s has role %s, route requires %s", claims.UserID, claims.Role, role)
			return response.Forbidden(c)
		}
		return c.Next()
	}
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return response.Unauthorized(c)
		}
		if claims.HasPermission(permission) {
			return c.Next()
		}
		return response.Forbidden(c)
	}
}
