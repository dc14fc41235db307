package utils

import (
	"net/http/httptest"
	"testing"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserClaims(t *testing.T) {
	tests := []struct {
		name   string
		locals interface{}
		want   string
	}{
		{"no claims", nil, ""},
		{"wrong type", "user-1", ""},
		{"claims without user", &models.UserClaims{}, ""},
		{"claims", &models.UserClaims{UserID: "user-1", Role: models.RoleCustomer}, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.locals != nil {
					c.Locals("claims", tt.locals)
				}
				claims, err := GetUserClaims(c)
				if tt.want == "" {
					assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
					assert.Nil(t, claims)
					return c.SendStatus(fiber.StatusUnauthorized)
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, claims.UserID)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			} else {
				assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			}
		})
	}
}
