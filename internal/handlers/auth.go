package handlers

import (
	"scanpay/internal/models"
	"scanpay/internal/services/auth"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a shopper account.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var input auth.SignupInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	user, err := h.authService.Signup(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "User registered successfully", fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// CreateStaff registers a staff account together with the store it runs.
func (h *AuthHandler) CreateStaff(c *fiber.Ctx) error {
	var input auth.StaffSignupInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	user, store, err := h.authService.CreateStaff(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Staff account created successfully", fiber.Map{
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
		"store": store,
	})
}

// Login authenticates a customer or staff member. The role field picks the
// app being logged into and defaults to customer.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}
	if input.Role == "" {
		input.Role = models.RoleCustomer
	}

	result, err := h.authService.Login(c.UserContext(), input.Email, input.Password, input.Role)
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Login successful", fiber.Map{
		"token": result.Token,
		"user": fiber.Map{
			"id":          result.User.ID,
			"name":        result.User.Name,
			"email":       result.User.Email,
			"role":        result.User.Role,
			"storeId":     result.StoreID,
			"permissions": models.GetDefaultPermissions(result.User.Role),
		},
	})
}
