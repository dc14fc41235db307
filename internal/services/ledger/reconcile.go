package ledger

import (
	"context"
	"log"
	"time"

	"scanpay/internal/services/provider"
)

const reconcileBatch = 100

// ReconcileStale polls the provider for orders still created after olderThan.
// Orders the provider abandoned become failed. Orders the provider reports
// as paid are only reported: without a signature they never become paid.
func (s *service) ReconcileStale(ctx context.Context, olderThan time.Duration) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	cutoff := s.now().Add(-olderThan)

	orders, err := s.orders.ListStale(ctx, cutoff, reconcileBatch)
	if err != nil {
		return report, err
	}

	for _, order := range orders {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++

		var remote *provider.Order
		err := s.call(ctx, "provider fetch order", func(ctx context.Context) error {
			var err error
			remote, err = s.gateway.FetchOrder(ctx, order.ID)
			return err
		})
		if err != nil {
			report.Errors++
			log.Printf("Reconcile: failed to fetch order %s: %v", order.ID, err)
			continue
		}

		switch remote.Status {
		case provider.StatusExpired:
			updated, err := s.orders.MarkFailed(ctx, order.ID)
			if err != nil {
				report.Errors++
				log.Printf("Reconcile: failed to mark order %s failed: %v", order.ID, err)
				continue
			}
			if updated {
				report.Failed++
				s.metrics.RecordReconciled("failed")
			}
		case provider.StatusPaid:
			report.PaidUnconfirmed++
			s.metrics.RecordReconciled("paid_unconfirmed")
			log.Printf("Reconcile: order %s is paid at provider (payment %s) but was never confirmed", order.ID, remote.PaymentID)
		default:
			report.Pending++
		}
	}

	if report.Checked > 0 {
		log.Printf("Reconcile: checked=%d failed=%d paid_unconfirmed=%d pending=%d errors=%d",
			report.Checked, report.Failed, report.PaidUnconfirmed, report.Pending, report.Errors)
	}
	return report, nil
}

// RunReconciler calls ReconcileStale every interval until ctx is done.
func RunReconciler(ctx context.Context, svc Service, every, olderThan time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ReconcileStale(ctx, olderThan); err != nil {
				log.Printf("Reconcile error: %v", err)
			}
		}
	}
}
