// Package repositories provides data access layer implementations.
// Every repository has a GORM (PostgreSQL) implementation and an in-memory
// one used for local development and tests.
package repositories

import (
	"context"
	"errors"
	"time"

	"scanpay/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already taken")
	ErrDuplicate  = errors.New("record already exists")
)

// UserRepository defines user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// CreateWithStore creates a staff user and the store they own atomically.
	CreateWithStore(ctx context.Context, user *models.User, store *models.Store) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// StoreRepository defines store persistence.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*models.Store, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Store, error)
	ListOpen(ctx context.Context) ([]*models.Store, error)
	// UpdateSettings applies non-nil fields to the store owned by ownerID.
	UpdateSettings(ctx context.Context, ownerID string, status, logoURL *string) (*models.Store, error)
}

// OrderRepository defines order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// MarkPaid moves a created order to paid. It reports false when the order
	// was not in the created state.
	MarkPaid(ctx context.Context, id, paymentID, method string, at time.Time) (bool, error)
	// MarkFailed moves a created order to failed.
	MarkFailed(ctx context.Context, id string) (bool, error)
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Order, error)
}

// ReceiptRepository defines receipt persistence.
type ReceiptRepository interface {
	// CreateOrGet inserts the receipt unless one already exists for the same
	// order, in which case the existing receipt is returned with created=false.
	CreateOrGet(ctx context.Context, receipt *models.Receipt) (r *models.Receipt, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.Receipt, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Receipt, error)
	// Consume is a test-and-set on the consumed flag. It reports true only for
	// the single caller that flipped it.
	Consume(ctx context.Context, req models.ConsumeRequest) (bool, error)
	ListConsumedByStore(ctx context.Context, storeID string, since time.Time) ([]*models.Receipt, error)
	CountConsumedByStore(ctx context.Context, storeID string) (int64, error)
	RecentConsumedByStore(ctx context.Context, storeID string, limit int) ([]*models.Receipt, error)
}

// VerificationRepository is the append-only audit trail.
type VerificationRepository interface {
	Append(ctx context.Context, record *models.VerificationRecord) error
	ListByStore(ctx context.Context, storeID string, limit int) ([]*models.VerificationRecord, error)
	ListByReceipt(ctx context.Context, receiptID string) ([]*models.VerificationRecord, error)
}
