package handlers

import (
	"scanpay/internal/services/dashboard"
	"scanpay/internal/services/store"
	"scanpay/internal/services/verification"
	"scanpay/internal/utils"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// StaffHandler serves the staff app's store-scoped screens.
type StaffHandler struct {
	dashboardService dashboard.Service
	stores           store.Service
	verifier         verification.Service
}

func NewStaffHandler(dashboardService dashboard.Service, stores store.Service, verifier verification.Service) *StaffHandler {
	return &StaffHandler{
		dashboardService: dashboardService,
		stores:           stores,
		verifier:         verifier,
	}
}

func (h *StaffHandler) GetDashboard(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	stats, err := h.dashboardService.Get(c.UserContext(), claims.StoreID)
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Dashboard data retrieved successfully", stats)
}

// GetVerifications returns the audit trail for the staff member's store.
func (h *StaffHandler) GetVerifications(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	records, err := h.verifier.History(c.UserContext(), claims.StoreID, utils.GetLimit(c, 50, 200))
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Verifications retrieved", records)
}

// UpdateStoreSettings lets the owner open or close the store or change its logo.
func (h *StaffHandler) UpdateStoreSettings(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input store.SettingsInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	s, err := h.stores.UpdateSettings(c.UserContext(), claims.UserID, input)
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Store settings updated", s)
}
