// Package store serves store lookups and owner-only settings.
package store

import (
	"context"
	"errors"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/utils/validation"

	"github.com/google/uuid"
)

type SettingsInput struct {
	Status  *string `json:"storeStatus"`
	LogoURL *string `json:"storeLogo"`
}

type Service interface {
	Get(ctx context.Context, id string) (*models.Store, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Store, error)
	// UpdateSettings changes the store owned by ownerID. Stores are closed,
	// never deleted.
	UpdateSettings(ctx context.Context, ownerID string, in SettingsInput) (*models.Store, error)
}

type service struct {
	stores repositories.StoreRepository
}

func NewService(stores repositories.StoreRepository) Service {
	return &service{stores: stores}
}

func (s *service) Get(ctx context.Context, id string) (*models.Store, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrStoreNotFound
	}
	return s.wrap(s.stores.GetByID(ctx, id))
}

func (s *service) GetByOwner(ctx context.Context, ownerID string) (*models.Store, error) {
	return s.wrap(s.stores.GetByOwner(ctx, ownerID))
}

func (s *service) UpdateSettings(ctx context.Context, ownerID string, in SettingsInput) (*models.Store, error) {
	if in.Status != nil {
		v := validation.New()
		v.OneOf(*in.Status, "storeStatus", models.StoreStatusOpen, models.StoreStatusClosed)
		if !v.Valid() {
			return nil, apperrors.New("INVALID_REQUEST", v.Error())
		}
	}
	return s.wrap(s.stores.UpdateSettings(ctx, ownerID, in.Status, in.LogoURL))
}

func (s *service) wrap(store *models.Store, err error) (*models.Store, error) {
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}
