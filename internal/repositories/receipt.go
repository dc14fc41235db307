package repositories

import (
	"context"
	"errors"
	"log"
	"time"

	"scanpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptCache is the read-through cache used for receipt lookups by order.
type ReceiptCache interface {
	CacheReceipt(ctx context.Context, receipt *models.Receipt) error
	GetReceipt(ctx context.Context, orderID string) (*models.Receipt, error)
	InvalidateReceipt(ctx context.Context, orderID string) error
}

type receiptRepository struct {
	db    *gorm.DB
	cache ReceiptCache
}

// NewReceiptRepository creates a receipt repository. cache may be nil.
func NewReceiptRepository(db *gorm.DB, cache ReceiptCache) ReceiptRepository {
	return &receiptRepository{db: db, cache: cache}
}

func (r *receiptRepository) CreateOrGet(ctx context.Context, receipt *models.Receipt) (*models.Receipt, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(receipt)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		r.cacheReceipt(ctx, receipt)
		return receipt, true, nil
	}

	existing, err := r.GetByOrderID(ctx, receipt.OrderID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *receiptRepository) GetByID(ctx context.Context, id string) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := r.db.WithContext(ctx).Where("receipt_id = ?", id).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Receipt, error) {
	if r.cache != nil {
		if receipt, err := r.cache.GetReceipt(ctx, orderID); err == nil {
			return receipt, nil
		}
	}

	var receipt models.Receipt
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.cacheReceipt(ctx, &receipt)
	return &receipt, nil
}

func (r *receiptRepository) Consume(ctx context.Context, req models.ConsumeRequest) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("receipt_id = ? AND consumed = ?", req.ReceiptID, false).
		Updates(map[string]interface{}{
			"consumed":          true,
			"consumed_at":       req.At,
			"consumed_by":       req.StaffID,
			"consumed_store_id": req.StoreID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected != 1 {
		return false, nil
	}

	if r.cache != nil {
		var orderID string
		if err := r.db.WithContext(ctx).Model(&models.Receipt{}).
			Where("receipt_id = ?", req.ReceiptID).
			Pluck("order_id", &orderID).Error; err == nil {
			if err := r.cache.InvalidateReceipt(ctx, orderID); err != nil {
				log.Printf("Warning: failed to invalidate receipt cache for order %s: %v", orderID, err)
			}
		}
	}
	return true, nil
}

func (r *receiptRepository) ListConsumedByStore(ctx context.Context, storeID string, since time.Time) ([]*models.Receipt, error) {
	var receipts []*models.Receipt
	err := r.db.WithContext(ctx).
		Where("consumed_store_id = ? AND consumed = ? AND consumed_at >= ?", storeID, true, since).
		Order("consumed_at").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) CountConsumedByStore(ctx context.Context, storeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("consumed_store_id = ? AND consumed = ?", storeID, true).
		Count(&count).Error
	return count, err
}

func (r *receiptRepository) RecentConsumedByStore(ctx context.Context, storeID string, limit int) ([]*models.Receipt, error) {
	var receipts []*models.Receipt
	err := r.db.WithContext(ctx).
		Where("consumed_store_id = ? AND consumed = ?", storeID, true).
		Order("consumed_at DESC").
		Limit(limit).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) cacheReceipt(ctx context.Context, receipt *models.Receipt) {
	if r.cache == nil {
		return
	}
	if err := r.cache.CacheReceipt(ctx, receipt); err != nil {
		log.Printf("Warning: failed to cache receipt %s: %v", receipt.ID, err)
	}
}
