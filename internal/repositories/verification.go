package repositories

import (
	"context"

	"scanpay/internal/models"

	"gorm.io/gorm"
)

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// Append inserts a record. Records are never updated or deleted.
func (r *verificationRepository) Append(ctx context.Context, record *models.VerificationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *verificationRepository) ListByStore(ctx context.Context, storeID string, limit int) ([]*models.VerificationRecord, error) {
	var records []*models.VerificationRecord
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *verificationRepository) ListByReceipt(ctx context.Context, receiptID string) ([]*models.VerificationRecord, error) {
	var records []*models.VerificationRecord
	err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at").
		Find(&records).Error
	return records, err
}
