package repositories

import (
	"context"
	"errors"

	"scanpay/internal/models"

	"gorm.io/gorm"
)

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) GetByID(ctx context.Context, id string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) ListOpen(ctx context.Context) ([]*models.Store, error) {
	var stores []*models.Store
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StoreStatusOpen).
		Order("id").
		Find(&stores).Error
	return stores, err
}

func (r *storeRepository) UpdateSettings(ctx context.Context, ownerID string, status, logoURL *string) (*models.Store, error) {
	updates := map[string]interface{}{}
	if status != nil {
		updates["status"] = *status
	}
	if logoURL != nil {
		updates["logo_url"] = *logoURL
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Store{}).
			Where("owner_id = ?", ownerID).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByOwner(ctx, ownerID)
}
