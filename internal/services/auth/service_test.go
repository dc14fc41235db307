package auth

import (
	"context"
	"testing"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-jwt-secret"

func newTestService() (Service, *repositories.InMemoryStore) {
	mem := repositories.NewInMemoryStore()
	return NewService(mem.Users(), mem.Stores(), secret, time.Hour), mem
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Name: "Asha", Email: " Asha@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password)

	_, err = svc.Signup(ctx, SignupInput{Name: "Asha", Email: "asha@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	res, err := svc.Login(ctx, "asha@example.com", "password123", models.RoleCustomer)
	require.NoError(t, err)
	_, claims, err := utils.ParseToken(res.Token, secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.HasPermission(models.PermissionOrderWrite))
	assert.False(t, claims.HasPermission(models.PermissionReceiptVerify))
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Signup(ctx, SignupInput{Name: "Asha", Email: "asha@example.com", Password: "password123"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		role     string
		wantErr  error
	}{
		{"unknown email", "who@example.com", "password123", "", apperrors.ErrInvalidCredentials},
		{"wrong password", "asha@example.com", "wrong-password", "", apperrors.ErrInvalidCredentials},
		{"customer into staff app", "asha@example.com", "password123", models.RoleStaff, apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateStaffCreatesStore(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	user, store, err := svc.CreateStaff(ctx, StaffSignupInput{
		SignupInput: SignupInput{Name: "Ravi", Email: "ravi@store.in", Password: "password123"},
		StoreName:   "Fresh Mart",
		City:        "Pune",
		Latitude:    18.52,
		Longitude:   73.85,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.Equal(t, user.ID, store.OwnerID)
	assert.True(t, store.IsOpen())

	owned, err := mem.Stores().GetByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, store.ID, owned.ID)

	res, err := svc.Login(ctx, "ravi@store.in", "password123", models.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, store.ID, res.StoreID)
	_, claims, err := utils.ParseToken(res.Token, secret)
	require.NoError(t, err)
	assert.Equal(t, store.ID, claims.StoreID)
	assert.True(t, claims.HasPermission(models.PermissionReceiptVerify))
}

func TestCreateStaffValidation(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.CreateStaff(context.Background(), StaffSignupInput{
		SignupInput: SignupInput{Name: "Ravi", Email: "ravi@store.in", Password: "password123"},
		StoreName:   "Fresh Mart",
		Latitude:    123,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = svc.Signup(context.Background(), SignupInput{Name: "", Email: "bad", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}
