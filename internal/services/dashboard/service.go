// Package dashboard aggregates per-store sales for staff.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"scanpay/internal/models"
	"scanpay/internal/repositories"
)

const recentLimit = 5

type Service interface {
	// Get returns today's totals, a 7-day sales series ending today and the
	// most recent verified receipts for the store.
	Get(ctx context.Context, storeID string) (*models.StaffDashboard, error)
}

type service struct {
	receipts repositories.ReceiptRepository
	now      func() time.Time
	loc      *time.Location
}

func NewService(receipts repositories.ReceiptRepository, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{receipts: receipts, now: time.Now, loc: loc}
}

func (s *service) Get(ctx context.Context, storeID string) (*models.StaffDashboard, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	weekStart := today.AddDate(0, 0, -6)

	week, err := s.receipts.ListConsumedByStore(ctx, storeID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("list week receipts: %w", err)
	}

	d := &models.StaffDashboard{StoreID: storeID, Recent: []*models.Receipt{}}
	for _, r := range week {
		if r.ConsumedAt == nil {
			continue
		}
		at := r.ConsumedAt.In(s.loc)
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, s.loc)
		idx := daysBetween(weekStart, day)
		if idx < 0 || idx > 6 {
			continue
		}
		d.Weekly[idx] += r.Amount
		if idx == 6 {
			d.TotalSales += r.Amount
			d.VerifiedCount++
		}
	}

	if d.TotalReceipts, err = s.receipts.CountConsumedByStore(ctx, storeID); err != nil {
		return nil, fmt.Errorf("count receipts: %w", err)
	}
	recent, err := s.receipts.RecentConsumedByStore(ctx, storeID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent receipts: %w", err)
	}
	if recent != nil {
		d.Recent = recent
	}
	return d, nil
}

// daysBetween counts calendar days, which stays correct across DST changes.
func daysBetween(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
