package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Customer permissions
	PermissionOrderWrite  = "order:write"
	PermissionReceiptRead = "receipt:read"

	// Staff permissions
	PermissionReceiptVerify = "receipt:verify"
	PermissionStoreWrite    = "store:write"
	PermissionDashboardRead = "dashboard:read"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	StoreID     string   `json:"store_id,omitempty"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleStaff:
		return []string{
			PermissionReceiptVerify,
			PermissionStoreWrite,
			PermissionDashboardRead,
		}
	case RoleCustomer:
		return []string{
			PermissionOrderWrite,
			PermissionReceiptRead,
		}
	default:
		return []string{}
	}
}
