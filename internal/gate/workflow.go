// Package gate drives the staff exit-gate scan flow: parse the QR payload,
// ask the server to consume the receipt, show the outcome, then reset.
package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/services/receipt"
)

// DefaultDwell is how long an outcome stays on screen.
const DefaultDwell = 3 * time.Second

var ErrBusy = errors.New("gate: scan ignored while busy")

type State int

const (
	StateReady State = iota
	StateChecking
	StateOutcome
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateChecking:
		return "checking"
	case StateOutcome:
		return "outcome"
	}
	return "unknown"
}

type event int

const (
	eventScan event = iota
	eventDecided
	eventDwellElapsed
	eventReset
)

func transition(s State, e event) (State, bool) {
	switch {
	case e == eventReset:
		return StateReady, true
	case s == StateReady && e == eventScan:
		return StateChecking, true
	case s == StateChecking && e == eventDecided:
		return StateOutcome, true
	case s == StateOutcome && e == eventDwellElapsed:
		return StateReady, true
	}
	return s, false
}

// Verifier asks the backend to consume a receipt.
type Verifier interface {
	Verify(ctx context.Context, receiptID string) (*Verdict, error)
}

type Verdict struct {
	Outcome models.VerificationOutcome `json:"outcome"`
	Reason  string                     `json:"reason,omitempty"`
}

// Attempt is one scan as seen by this device.
type Attempt struct {
	ReceiptID string
	Outcome   models.VerificationOutcome
	Reason    string
	Payload   *receipt.Payload
	At        time.Time
}

type Workflow struct {
	mu         sync.Mutex
	state      State
	current    *Attempt
	dwellUntil time.Time
	generation uint64
	history    []Attempt

	verifier Verifier
	dwell    time.Duration
	now      func() time.Time
}

type Option func(*Workflow)

func WithDwell(d time.Duration) Option {
	return func(w *Workflow) { w.dwell = d }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(verifier Verifier, opts ...Option) *Workflow {
	w := &Workflow{
		verifier: verifier,
		dwell:    DefaultDwell,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan handles one decoded QR payload. Scans while checking or while an
// outcome is displayed return ErrBusy. A structurally invalid payload
// resolves to invalid without calling the backend.
func (w *Workflow) Scan(ctx context.Context, raw string) (*Attempt, error) {
	w.mu.Lock()
	w.expireLocked()
	next, ok := transition(w.state, eventScan)
	if !ok {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.state = next
	w.generation++
	gen := w.generation
	w.mu.Unlock()

	attempt := w.check(ctx, raw)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, *attempt)
	if w.generation == gen {
		if next, ok := transition(w.state, eventDecided); ok {
			w.state = next
			w.current = attempt
			w.dwellUntil = w.now().Add(w.dwell)
		}
	}
	return attempt, nil
}

func (w *Workflow) check(ctx context.Context, raw string) *Attempt {
	attempt := &Attempt{Outcome: models.OutcomeInvalid}

	payload, err := receipt.ParsePayload(raw)
	if err != nil {
		attempt.Reason = models.ReasonMalformed
		attempt.At = w.now()
		return attempt
	}
	attempt.Payload = payload
	attempt.ReceiptID = payload.ReceiptID

	verdict, err := w.verifier.Verify(ctx, payload.ReceiptID)
	attempt.At = w.now()
	switch {
	case err == nil:
		attempt.Outcome = verdict.Outcome
		attempt.Reason = verdict.Reason
	case apperrors.IsTimeout(err):
		attempt.Reason = models.ReasonTimeout
	default:
		attempt.Reason = apperrors.Code(err)
		if attempt.Reason == "" {
			attempt.Reason = "error"
		}
	}
	return attempt
}

// Reset is the manual "scan again" action. An in-flight check still lands
// in History but no longer changes the screen.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state, _ = transition(w.state, eventReset)
	w.current = nil
	w.dwellUntil = time.Time{}
	w.generation++
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.expireLocked()
	return w.state
}

// Current returns the attempt on screen, or nil when ready or checking.
func (w *Workflow) Current() *Attempt {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.expireLocked()
	if w.state != StateOutcome || w.current == nil {
		return nil
	}
	cp := *w.current
	return &cp
}

func (w *Workflow) History() []Attempt {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Attempt, len(w.history))
	copy(out, w.history)
	return out
}

func (w *Workflow) expireLocked() {
	if w.state == StateOutcome && !w.now().Before(w.dwellUntil) {
		w.state, _ = transition(w.state, eventDwellElapsed)
		w.current = nil
	}
}
