// Package verification consumes receipts at the exit gate.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/events"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/utils/retry"

	"github.com/google/uuid"
)

// Staff identifies who is scanning and at which store.
type Staff struct {
	UserID  string
	StoreID string
}

type Result struct {
	ReceiptID string                     `json:"receiptId"`
	Outcome   models.VerificationOutcome `json:"outcome"`
	Reason    string                     `json:"reason,omitempty"`
	Receipt   *models.Receipt            `json:"receipt,omitempty"`
}

type Service interface {
	// Verify resolves a scan to valid, invalid or already-used. Exactly one
	// caller ever gets valid for a given receipt. Every call appends one
	// VerificationRecord.
	Verify(ctx context.Context, receiptID string, staff Staff) (*Result, error)
	History(ctx context.Context, storeID string, limit int) ([]*models.VerificationRecord, error)
}

type Config struct {
	Timeout time.Duration
	Retry   retry.Policy
}

type service struct {
	receipts  repositories.ReceiptRepository
	records   repositories.VerificationRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	config    Config
	now       func() time.Time
}

func NewService(
	receipts repositories.ReceiptRepository,
	records repositories.VerificationRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	config Config,
) Service {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Retry.Attempts == 0 {
		config.Retry = retry.Policy{Attempts: 3, Backoff: 200 * time.Millisecond}
	}
	return &service{
		receipts:  receipts,
		records:   records,
		publisher: publisher,
		metrics:   m,
		config:    config,
		now:       time.Now,
	}
}

func (s *service) Verify(ctx context.Context, receiptID string, staff Staff) (*Result, error) {
	if receiptID == "" {
		return nil, apperrors.New("INVALID_REQUEST", "receiptId is required")
	}

	result, verifyErr := s.resolve(ctx, receiptID, staff)
	s.record(ctx, result, staff)
	s.metrics.RecordVerification(string(result.Outcome), result.Reason)

	if result.Outcome == models.OutcomeValid {
		events.PublishAsync(s.publisher, events.Event{
			Type:      events.TopicReceiptVerified,
			OrderID:   result.Receipt.OrderID,
			ReceiptID: receiptID,
			StoreID:   staff.StoreID,
			StaffID:   staff.UserID,
			Amount:    result.Receipt.Amount,
			Currency:  result.Receipt.Currency,
			Outcome:   string(result.Outcome),
		})
	}
	return result, verifyErr
}

// resolve decides the outcome. The consumed flag is flipped by one
// conditional update, never by a read followed by a write.
func (s *service) resolve(ctx context.Context, receiptID string, staff Staff) (*Result, error) {
	result := &Result{ReceiptID: receiptID, Outcome: models.OutcomeInvalid}

	var receipt *models.Receipt
	err := s.call(ctx, "get receipt", func(ctx context.Context) error {
		var err error
		receipt, err = s.receipts.GetByID(ctx, receiptID)
		return err
	})
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		result.Reason = models.ReasonUnknownReceipt
		return result, nil
	case err != nil:
		result.Reason = models.ReasonTimeout
		return result, s.storeError(err)
	}

	if staff.StoreID != "" && receipt.StoreID != "" && receipt.StoreID != staff.StoreID {
		result.Reason = models.ReasonForeignStore
		return result, nil
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	timedOut := false
	var consumed bool
	err = s.call(ctx, "consume receipt", func(ctx context.Context) error {
		var err error
		consumed, err = s.receipts.Consume(ctx, models.ConsumeRequest{
			ReceiptID: receiptID,
			StaffID:   staff.UserID,
			StoreID:   staff.StoreID,
			At:        at,
		})
		if apperrors.IsTimeout(err) {
			timedOut = true
		}
		return err
	})
	if err != nil {
		result.Reason = models.ReasonTimeout
		return result, s.storeError(err)
	}

	// A timed out attempt may have committed before the retry saw consumed=true.
	if !consumed && timedOut {
		if current, err := s.receipts.GetByID(ctx, receiptID); err == nil && current.ConsumedAt != nil &&
			current.ConsumedAt.Equal(at) && current.ConsumedBy != nil && *current.ConsumedBy == staff.UserID {
			consumed = true
		}
	}

	if consumed {
		receipt.Consumed = true
		receipt.ConsumedAt = &at
		receipt.ConsumedBy = &staff.UserID
		receipt.ConsumedStoreID = &staff.StoreID
		result.Outcome = models.OutcomeValid
		result.Receipt = receipt
		log.Printf("Receipt %s verified by staff %s at store %s", receiptID, staff.UserID, staff.StoreID)
		return result, nil
	}

	result.Outcome = models.OutcomeAlreadyUsed
	return result, nil
}

func (s *service) record(ctx context.Context, result *Result, staff Staff) {
	rec := &models.VerificationRecord{
		ID:        uuid.NewString(),
		ReceiptID: result.ReceiptID,
		StaffID:   staff.UserID,
		StoreID:   staff.StoreID,
		Outcome:   result.Outcome,
		Reason:    result.Reason,
		CreatedAt: s.now().UTC(),
	}
	// The audit write is detached from the request so a cancelled scan is
	// still recorded.
	err := s.call(context.WithoutCancel(ctx), "append verification", func(ctx context.Context) error {
		return s.records.Append(ctx, rec)
	})
	if err != nil {
		log.Printf("ERROR: failed to record verification of %s (%s): %v", result.ReceiptID, result.Outcome, err)
	}
}

func (s *service) History(ctx context.Context, storeID string, limit int) ([]*models.VerificationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.records.ListByStore(ctx, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	return records, nil
}

func (s *service) storeError(err error) error {
	if apperrors.IsTimeout(err) {
		return apperrors.ErrTimeout
	}
	return fmt.Errorf("verification store: %w", err)
}

func (s *service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.config.Retry, op, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
		return fn(cctx)
	})
}
