package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validPayload = `{"receiptId":"R","amount":499,"itemsCount":1,"paidAt":"2024-05-01T10:00:00Z","method":"upi"}`

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, receiptID string) (*Verdict, error) {
	args := m.Called(ctx, receiptID)
	v, _ := args.Get(0).(*Verdict)
	return v, args.Error(1)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from State
		ev   event
		to   State
		ok   bool
	}{
		{StateReady, eventScan, StateChecking, true},
		{StateChecking, eventScan, StateChecking, false},
		{StateOutcome, eventScan, StateOutcome, false},
		{StateChecking, eventDecided, StateOutcome, true},
		{StateReady, eventDecided, StateReady, false},
		{StateOutcome, eventDwellElapsed, StateReady, true},
		{StateChecking, eventDwellElapsed, StateChecking, false},
		{StateChecking, eventReset, StateReady, true},
		{StateOutcome, eventReset, StateReady, true},
	}

	for _, tt := range tests {
		got, ok := transition(tt.from, tt.ev)
		assert.Equal(t, tt.to, got, "%s + %d", tt.from, tt.ev)
		assert.Equal(t, tt.ok, ok, "%s + %d", tt.from, tt.ev)
	}
}

func TestScanValidThenDwellThenReady(t *testing.T) {
	clock := newClock()
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "R").Return(&Verdict{Outcome: models.OutcomeValid}, nil).Once()
	w := NewWorkflow(v, WithClock(clock.Now))

	attempt, err := w.Scan(context.Background(), validPayload)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeValid, attempt.Outcome)
	assert.Equal(t, int64(499), attempt.Payload.Amount)
	assert.Equal(t, StateOutcome, w.State())
	require.NotNil(t, w.Current())

	clock.Advance(DefaultDwell - time.Millisecond)
	assert.Equal(t, StateOutcome, w.State())

	clock.Advance(time.Millisecond)
	assert.Equal(t, StateReady, w.State())
	assert.Nil(t, w.Current())
	v.AssertExpectations(t)
}

func TestScanIgnoredDuringDwell(t *testing.T) {
	clock := newClock()
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "R").Return(&Verdict{Outcome: models.OutcomeValid}, nil).Once()
	w := NewWorkflow(v, WithClock(clock.Now), WithDwell(time.Second))

	_, err := w.Scan(context.Background(), validPayload)
	require.NoError(t, err)

	_, err = w.Scan(context.Background(), validPayload)
	assert.ErrorIs(t, err, ErrBusy)
	v.AssertNumberOfCalls(t, "Verify", 1)

	clock.Advance(time.Second)
	v.On("Verify", mock.Anything, "R").Return(&Verdict{Outcome: models.OutcomeAlreadyUsed}, nil).Once()
	attempt, err := w.Scan(context.Background(), validPayload)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyUsed, attempt.Outcome)
}

func TestScanIgnoredWhileChecking(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "R").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&Verdict{Outcome: models.OutcomeValid}, nil).Once()
	w := NewWorkflow(v, WithClock(newClock().Now))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.Scan(context.Background(), validPayload)
	}()
	<-entered

	assert.Equal(t, StateChecking, w.State())
	_, err := w.Scan(context.Background(), validPayload)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	<-done
	assert.Equal(t, StateOutcome, w.State())
	v.AssertNumberOfCalls(t, "Verify", 1)
}

func TestScanMalformedSkipsBackend(t *testing.T) {
	v := new(mockVerifier)
	w := NewWorkflow(v, WithClock(newClock().Now))

	for _, raw := range []string{"not json", `{"amount":499}`, `{"receiptId":"R","paidAt":"2024-05-01T10:00:00Z"}`} {
		w.Reset()
		attempt, err := w.Scan(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeInvalid, attempt.Outcome)
		assert.Equal(t, models.ReasonMalformed, attempt.Reason)
	}
	v.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	assert.Len(t, w.History(), 3)
}

func TestScanBackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"timeout", apperrors.ErrTimeout, models.ReasonTimeout},
		{"deadline", context.DeadlineExceeded, models.ReasonTimeout},
		{"unauthorized", apperrors.ErrUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := new(mockVerifier)
			v.On("Verify", mock.Anything, "R").Return(nil, tt.err)
			w := NewWorkflow(v, WithClock(newClock().Now))

			attempt, err := w.Scan(context.Background(), validPayload)
			require.NoError(t, err)
			assert.Equal(t, models.OutcomeInvalid, attempt.Outcome)
			assert.Equal(t, tt.reason, attempt.Reason)
			assert.Equal(t, StateOutcome, w.State())
		})
	}
}

func TestResetDuringCheckWins(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "R").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&Verdict{Outcome: models.OutcomeValid}, nil).Once()
	w := NewWorkflow(v, WithClock(newClock().Now))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.Scan(context.Background(), validPayload)
	}()
	<-entered

	w.Reset()
	assert.Equal(t, StateReady, w.State())

	close(release)
	<-done
	assert.Equal(t, StateReady, w.State(), "late result must not overwrite the reset")
	assert.Nil(t, w.Current())
	require.Len(t, w.History(), 1)
	assert.Equal(t, models.OutcomeValid, w.History()[0].Outcome)
}

func TestResetClearsOutcome(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "R").Return(&Verdict{Outcome: models.OutcomeInvalid, Reason: models.ReasonForeignStore}, nil)
	w := NewWorkflow(v, WithClock(newClock().Now))

	attempt, err := w.Scan(context.Background(), validPayload)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonForeignStore, attempt.Reason)

	w.Reset()
	assert.Equal(t, StateReady, w.State())

	_, err = w.Scan(context.Background(), validPayload)
	assert.NoError(t, err)
}
