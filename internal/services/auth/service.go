package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/utils"
	"scanpay/internal/utils/validation"

	"github.com/google/uuid"
)

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type StaffSignupInput struct {
	SignupInput
	StoreName string  `json:"storeName"`
	Location  string  `json:"location"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	LogoURL   string  `json:"storeLogo"`
}

type LoginResult struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	StoreID string       `json:"storeId,omitempty"`
}

type Service interface {
	Signup(ctx context.Context, in SignupInput) (*models.User, error)
	CreateStaff(ctx context.Context, in StaffSignupInput) (*models.User, *models.Store, error)
	// Login authenticates the user for the requested role. A customer cannot
	// log into the staff app and vice versa.
	Login(ctx context.Context, email, password, role string) (*LoginResult, error)
}

type service struct {
	users     repositories.UserRepository
	stores    repositories.StoreRepository
	jwtSecret string
	jwtTTL    time.Duration
}

func NewService(users repositories.UserRepository, stores repositories.StoreRepository, jwtSecret string, jwtTTL time.Duration) Service {
	return &service{
		users:     users,
		stores:    stores,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

func (s *service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	user, err := s.newUser(in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, err
	}
	log.Printf("Customer %s signed up", user.ID)
	return user, nil
}

func (s *service) CreateStaff(ctx context.Context, in StaffSignupInput) (*models.User, *models.Store, error) {
	v := validation.New()
	v.Required(in.StoreName, "storeName")
	v.Coordinates(in.Latitude, in.Longitude)
	if !v.Valid() {
		return nil, nil, apperrors.New("INVALID_REQUEST", v.Error())
	}

	user, err := s.newUser(in.SignupInput, models.RoleStaff)
	if err != nil {
		return nil, nil, err
	}
	store := &models.Store{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.StoreName),
		Location:  in.Location,
		City:      in.City,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Status:    models.StoreStatusOpen,
		LogoURL:   in.LogoURL,
	}

	if err := s.users.CreateWithStore(ctx, user, store); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, nil, apperrors.ErrEmailTaken
		}
		return nil, nil, err
	}
	log.Printf("Staff %s created with store %s", user.ID, store.ID)
	return user, store, nil
}

func (s *service) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Login failed: no user for %s", email)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(user.Password, password) {
		log.Printf("Login failed: incorrect password for user %s", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if role != "" && role != user.Role {
		log.Printf("Login failed: user %s is %s, requested %s", user.ID, user.Role, role)
		return nil, apperrors.ErrForbidden
	}

	claims := &models.UserClaims{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: models.GetDefaultPermissions(user.Role),
	}
	if user.Role == models.RoleStaff {
		store, err := s.stores.GetByOwner(ctx, user.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		if store != nil {
			claims.StoreID = store.ID
		}
	}

	token, err := utils.GenerateToken(claims, s.jwtSecret, s.jwtTTL)
	if err != nil {
		log.Println("Error generating token:", err)
		return nil, errors.New("error generating token")
	}

	return &LoginResult{Token: token, User: user, StoreID: claims.StoreID}, nil
}

func (s *service) newUser(in SignupInput, role string) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)

	v := validation.New()
	v.Required(in.Name, "name")
	v.Email(in.Email)
	v.Password(in.Password)
	if !v.Valid() {
		return nil, apperrors.New("INVALID_REQUEST", v.Error())
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Password: hashed,
		Role:     role,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
