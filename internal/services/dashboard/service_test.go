package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scanpay/internal/models"
	"scanpay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	mem := repositories.NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

	consume := func(id string, amount int64, store string, at time.Time) {
		_, _, err := mem.Receipts().CreateOrGet(ctx, &models.Receipt{ID: id, OrderID: "o-" + id, StoreID: store, Amount: amount, ItemsCount: 1})
		require.NoError(t, err)
		ok, err := mem.Receipts().Consume(ctx, models.ConsumeRequest{ReceiptID: id, StaffID: "staff", StoreID: store, At: at})
		require.NoError(t, err)
		require.True(t, ok)
	}

	consume("today-1", 100, "s1", now.Add(-time.Hour))
	consume("today-2", 250, "s1", now.Add(-2*time.Hour))
	consume("yesterday", 40, "s1", now.AddDate(0, 0, -1))
	consume("six-days", 7, "s1", now.AddDate(0, 0, -6))
	consume("old", 1000, "s1", now.AddDate(0, 0, -30))
	consume("other-store", 999, "s2", now)
	for i := 0; i < 4; i++ {
		consume(fmt.Sprintf("extra-%d", i), 1, "s1", now.Add(-time.Duration(10+i)*time.Hour))
	}
	_, _, err := mem.Receipts().CreateOrGet(ctx, &models.Receipt{ID: "unused", OrderID: "o-unused", StoreID: "s1", Amount: 5})
	require.NoError(t, err)

	svc := NewService(mem.Receipts(), time.UTC).(*service)
	svc.now = func() time.Time { return now }

	d, err := svc.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, int64(354), d.TotalSales)
	assert.Equal(t, int64(6), d.VerifiedCount)
	assert.Equal(t, int64(9), d.TotalReceipts)
	assert.Equal(t, [7]int64{7, 0, 0, 0, 0, 40, 354}, d.Weekly)
	require.Len(t, d.Recent, 5)
	assert.Equal(t, "today-1", d.Recent[0].ID)
}

func TestDashboardEmptyStore(t *testing.T) {
	mem := repositories.NewInMemoryStore()
	d, err := NewService(mem.Receipts(), nil).Get(context.Background(), "none")
	require.NoError(t, err)
	assert.Zero(t, d.TotalSales)
	assert.NotNil(t, d.Recent)
}
