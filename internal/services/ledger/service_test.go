package ledger

import (
	"context"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/events"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/provider"
	"scanpay/internal/utils/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string  { return "mock" }
func (m *mockGateway) KeyID() string { return "mock_key" }

func (m *mockGateway) CreateOrder(ctx context.Context, amount int64, currency, reference string) (*provider.Order, error) {
	args := m.Called(ctx, amount, currency, reference)
	order, _ := args.Get(0).(*provider.Order)
	return order, args.Error(1)
}

func (m *mockGateway) FetchOrder(ctx context.Context, orderID string) (*provider.Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*provider.Order)
	return order, args.Error(1)
}

type fixture struct {
	svc     *service
	store   *repositories.InMemoryStore
	sandbox *provider.SandboxGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sandbox, err := provider.NewSandboxGateway("sandbox_key", testSecret)
	require.NoError(t, err)
	mem := repositories.NewInMemoryStore()
	svc := NewService(mem.Orders(), mem.Stores(), sandbox, nil, nil, Config{
		SigningSecret: testSecret,
		Retry:         retry.Policy{Attempts: 3, Backoff: time.Millisecond},
	}).(*service)
	return &fixture{svc: svc, store: mem, sandbox: sandbox}
}

func (f *fixture) createOrder(t *testing.T, amount int64) string {
	t.Helper()
	res, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{Amount: amount, CustomerID: "cust-1"})
	require.NoError(t, err)
	return res.OrderID
}

func TestCreateOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    CreateOrderInput
		wantErr  error
		currency string
	}{
		{name: "zero amount", input: CreateOrderInput{Amount: 0}, wantErr: apperrors.ErrInvalidAmount},
		{name: "negative amount", input: CreateOrderInput{Amount: -5}, wantErr: apperrors.ErrInvalidAmount},
		{name: "bad currency", input: CreateOrderInput{Amount: 10, Currency: "rupees"}, wantErr: apperrors.ErrInvalidRequest},
		{name: "unknown store", input: CreateOrderInput{Amount: 10, StoreID: "nope"}, wantErr: apperrors.ErrStoreNotFound},
		{name: "default currency", input: CreateOrderInput{Amount: 499}, currency: "INR"},
		{name: "explicit currency", input: CreateOrderInput{Amount: 499, Currency: "USD"}, currency: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res, err := f.svc.CreateOrder(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "sandbox_key", res.ProviderKey)
			assert.Equal(t, tt.currency, res.Currency)

			order, err := f.svc.GetOrder(context.Background(), res.OrderID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusCreated, order.Status)
			assert.Equal(t, 1, order.ItemsCount)
		})
	}
}

func TestCreateOrderClosedStore(t *testing.T) {
	f := newFixture(t)
	f.store.PutStore(&models.Store{ID: "s1", Name: "Closed", Status: models.StoreStatusClosed})

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{Amount: 10, StoreID: "s1"})
	assert.Equal(t, "STORE_CLOSED", apperrors.Code(err))
}

func TestConfirmOrderValidSignature(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 499)
	paymentID, sig, err := f.sandbox.Pay(orderID)
	require.NoError(t, err)

	res, err := f.svc.ConfirmOrder(context.Background(), ConfirmInput{
		OrderID:           orderID,
		ProviderPaymentID: paymentID,
		ProviderSignature: sig,
		Method:            "upi",
	})

	require.NoError(t, err)
	assert.True(t, res.Verified)

	order, _ := f.svc.GetOrder(context.Background(), orderID)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "upi", order.Method)
	assert.Equal(t, paymentID, order.ProviderPaymentID)
	assert.NotNil(t, order.PaidAt)
}

func TestConfirmOrderSingleBitMutation(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 499)
	paymentID, sig, err := f.sandbox.Pay(orderID)
	require.NoError(t, err)

	raw, err := hex.DecodeString(sig)
	require.NoError(t, err)

	for i := 0; i < len(raw)*8; i++ {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i/8] ^= 1 << (i % 8)

		res, err := f.svc.ConfirmOrder(context.Background(), ConfirmInput{
			OrderID:           orderID,
			ProviderPaymentID: paymentID,
			ProviderSignature: hex.EncodeToString(mutated),
		})
		require.ErrorIs(t, err, apperrors.ErrSignatureMismatch, "bit %d", i)
		require.False(t, res.Verified, "bit %d", i)
	}

	order, _ := f.svc.GetOrder(context.Background(), orderID)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
}

func TestConfirmOrderReplay(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 100)
	paymentID, sig, _ := f.sandbox.Pay(orderID)
	in := ConfirmInput{OrderID: orderID, ProviderPaymentID: paymentID, ProviderSignature: sig}

	first, err := f.svc.ConfirmOrder(context.Background(), in)
	require.NoError(t, err)
	second, err := f.svc.ConfirmOrder(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, first.Verified)
	assert.True(t, second.Verified)

	other := ConfirmInput{
		OrderID:           orderID,
		ProviderPaymentID: "pay_other",
		ProviderSignature: provider.Sign(testSecret, orderID, "pay_other"),
	}
	res, err := f.svc.ConfirmOrder(context.Background(), other)
	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)
	assert.False(t, res.Verified)
}

func TestConfirmOrderErrors(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 100)
	paymentID, sig, _ := f.sandbox.Pay(orderID)

	_, err := f.svc.ConfirmOrder(context.Background(), ConfirmInput{OrderID: orderID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = f.svc.ConfirmOrder(context.Background(), ConfirmInput{
		OrderID: "missing", ProviderPaymentID: paymentID, ProviderSignature: sig,
	})
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	_, err = f.svc.ConfirmOrder(context.Background(), ConfirmInput{
		OrderID: orderID, ProviderPaymentID: paymentID, ProviderSignature: sig, CustomerID: "someone-else",
	})
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	ok, err := f.store.Orders().MarkFailed(context.Background(), orderID)
	require.NoError(t, err)
	require.True(t, ok)
	res, err := f.svc.ConfirmOrder(context.Background(), ConfirmInput{
		OrderID: orderID, ProviderPaymentID: paymentID, ProviderSignature: sig,
	})
	assert.ErrorIs(t, err, apperrors.ErrOrderFailed)
	assert.False(t, res.Verified)
}

func TestCreateOrderRetriesProviderTimeouts(t *testing.T) {
	gw := new(mockGateway)
	gw.On("CreateOrder", mock.Anything, int64(499), "INR", mock.Anything).
		Return(nil, context.DeadlineExceeded).Twice()
	gw.On("CreateOrder", mock.Anything, int64(499), "INR", mock.Anything).
		Return(&provider.Order{ID: "order_x", Amount: 499, Currency: "INR", Status: provider.StatusCreated}, nil).Once()

	mem := repositories.NewInMemoryStore()
	svc := NewService(mem.Orders(), nil, gw, nil, nil, Config{
		SigningSecret: testSecret,
		Retry:         retry.Policy{Attempts: 3, Backoff: time.Millisecond},
	})

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{Amount: 499})
	require.NoError(t, err)
	assert.Equal(t, "order_x", res.OrderID)
	gw.AssertNumberOfCalls(t, "CreateOrder", 3)
}

func TestCreateOrderSurfacesTimeout(t *testing.T) {
	gw := new(mockGateway)
	gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrTimeout)

	mem := repositories.NewInMemoryStore()
	svc := NewService(mem.Orders(), nil, gw, nil, nil, Config{
		SigningSecret: testSecret,
		Retry:         retry.Policy{Attempts: 3, Backoff: time.Millisecond},
	})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{Amount: 1})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	gw.AssertNumberOfCalls(t, "CreateOrder", 3)
}

func TestReconcileStale(t *testing.T) {
	f := newFixture(t)
	abandoned := f.createOrder(t, 100)
	paidNotConfirmed := f.createOrder(t, 200)
	pending := f.createOrder(t, 300)

	require.NoError(t, f.sandbox.Expire(abandoned))
	_, _, err := f.sandbox.Pay(paidNotConfirmed)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	report, err := f.svc.ReconcileStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.PaidUnconfirmed)
	assert.Equal(t, 1, report.Pending)

	statuses := map[string]string{}
	for _, id := range []string{abandoned, paidNotConfirmed, pending} {
		order, err := f.svc.GetOrder(context.Background(), id)
		require.NoError(t, err)
		statuses[id] = order.Status
	}
	assert.Equal(t, models.OrderStatusFailed, statuses[abandoned])
	assert.Equal(t, models.OrderStatusCreated, statuses[paidNotConfirmed])
	assert.Equal(t, models.OrderStatusCreated, statuses[pending])
}

func TestReconcileIgnoresFreshOrders(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t, 100)

	report, err := f.svc.ReconcileStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Checked)
}

type recordingPublisher struct {
	mutex  sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// slowOrders commits the first MarkPaid or Create and then reports a timeout,
// as a database does when the deadline fires after the commit.
type slowOrders struct {
	repositories.OrderRepository
	markPaidTimeouts int32
	createTimeouts   int32
}

func (o *slowOrders) MarkPaid(ctx context.Context, id, paymentID, method string, at time.Time) (bool, error) {
	ok, err := o.OrderRepository.MarkPaid(ctx, id, paymentID, method, at)
	if atomic.CompareAndSwapInt32(&o.markPaidTimeouts, 1, 0) {
		return false, context.DeadlineExceeded
	}
	return ok, err
}

func (o *slowOrders) Create(ctx context.Context, order *models.Order) error {
	err := o.OrderRepository.Create(ctx, order)
	if atomic.CompareAndSwapInt32(&o.createTimeouts, 1, 0) {
		return context.DeadlineExceeded
	}
	return err
}

func newSlowService(t *testing.T, orders *slowOrders, publisher events.Publisher) (Service, *provider.SandboxGateway) {
	t.Helper()
	sandbox, err := provider.NewSandboxGateway("sandbox_key", testSecret)
	require.NoError(t, err)
	svc := NewService(orders, nil, sandbox, publisher, nil, Config{
		SigningSecret: testSecret,
		Retry:         retry.Policy{Attempts: 3, Backoff: time.Millisecond},
	})
	return svc, sandbox
}

func TestConfirmOrderCommittedBeforeTimeoutStillPublishes(t *testing.T) {
	mem := repositories.NewInMemoryStore()
	orders := &slowOrders{OrderRepository: mem.Orders()}
	publisher := &recordingPublisher{}
	svc, sandbox := newSlowService(t, orders, publisher)

	created, err := svc.CreateOrder(context.Background(), CreateOrderInput{Amount: 499})
	require.NoError(t, err)
	paymentID, sig, err := sandbox.Pay(created.OrderID)
	require.NoError(t, err)

	atomic.StoreInt32(&orders.markPaidTimeouts, 1)
	res, err := svc.ConfirmOrder(context.Background(), ConfirmInput{
		OrderID:           created.OrderID,
		ProviderPaymentID: paymentID,
		ProviderSignature: sig,
	})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, models.OrderStatusPaid, res.Order.Status)

	assert.Eventually(t, func() bool {
		types := publisher.types()
		return len(types) == 1 && types[0] == events.TopicOrderPaid
	}, time.Second, 5*time.Millisecond)

	// A genuine replay afterwards does not publish again.
	_, err = svc.ConfirmOrder(context.Background(), ConfirmInput{
		OrderID:           created.OrderID,
		ProviderPaymentID: paymentID,
		ProviderSignature: sig,
	})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, publisher.types(), 1)
}

func TestCreateOrderCommittedBeforeTimeout(t *testing.T) {
	mem := repositories.NewInMemoryStore()
	orders := &slowOrders{OrderRepository: mem.Orders(), createTimeouts: 1}
	svc, _ := newSlowService(t, orders, nil)

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{Amount: 499})
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(499), order.Amount)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
}

func TestCreateOrderDuplicateOnFirstAttemptFails(t *testing.T) {
	gw := new(mockGateway)
	gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&provider.Order{ID: "order_dup", Status: provider.StatusCreated}, nil)

	mem := repositories.NewInMemoryStore()
	require.NoError(t, mem.Orders().Create(context.Background(), &models.Order{ID: "order_dup", Amount: 1, Status: models.OrderStatusCreated}))
	svc := NewService(mem.Orders(), nil, gw, nil, nil, Config{SigningSecret: testSecret})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{Amount: 499})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestSettleProviderPayment(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 499)
	ctx := context.Background()

	res, err := f.svc.SettleProviderPayment(ctx, provider.Payment{OrderID: orderID, PaymentID: "ch_1", Method: "card"})
	require.NoError(t, err)
	assert.True(t, res.Verified)

	order, err := f.svc.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "ch_1", order.ProviderPaymentID)
	assert.Equal(t, "card", order.Method)

	again, err := f.svc.SettleProviderPayment(ctx, provider.Payment{OrderID: orderID, PaymentID: "ch_1"})
	require.NoError(t, err)
	assert.True(t, again.Verified)

	_, err = f.svc.SettleProviderPayment(ctx, provider.Payment{OrderID: orderID, PaymentID: "ch_2"})
	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)

	_, err = f.svc.SettleProviderPayment(ctx, provider.Payment{OrderID: "missing", PaymentID: "ch_1"})
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	_, err = f.svc.SettleProviderPayment(ctx, provider.Payment{OrderID: orderID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}
