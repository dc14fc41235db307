// Package scanner debounces barcode reads from a camera-driven decoder so
// that one physical scan produces one product lookup.
package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long reads are ignored after a lookup completes.
const DefaultCooldown = 6 * time.Second

// ErrIgnored is returned for reads dropped by the debounce.
var ErrIgnored = errors.New("scanner: read ignored")

type State int

const (
	StateIdle State = iota
	StateLocked
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocked:
		return "locked"
	case StateCooldown:
		return "cooldown"
	}
	return "unknown"
}

type event int

const (
	eventRead event = iota
	eventLookupDone
	eventCooldownElapsed
	eventReset
)

// transition is the whole state machine. ok is false when the event is not
// accepted in the current state.
func transition(s State, e event) (next State, ok bool) {
	switch {
	case e == eventReset:
		return StateIdle, true
	case s == StateIdle && e == eventRead:
		return StateLocked, true
	case s == StateLocked && e == eventLookupDone:
		return StateCooldown, true
	case s == StateCooldown && e == eventCooldownElapsed:
		return StateIdle, true
	}
	return s, false
}

type Product struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// LookupFunc resolves a barcode to a product.
type LookupFunc func(ctx context.Context, code string) (*Product, error)

type Snapshot struct {
	State         State
	LastCode      string
	CooldownUntil time.Time
}

// Session owns the scan state for one scanning screen. Sessions are
// independent; create one per device or screen.
type Session struct {
	mu            sync.Mutex
	state         State
	lastCode      string
	cooldownUntil time.Time
	generation    uint64

	lookup   LookupFunc
	cooldown time.Duration
	now      func() time.Time
}

type Option func(*Session)

func WithCooldown(d time.Duration) Option {
	return func(s *Session) { s.cooldown = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(lookup LookupFunc, opts ...Option) *Session {
	s := &Session{
		lookup:   lookup,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read handles one decoded barcode. Accepted reads block for the product
// lookup; the session then cools down whether or not the lookup succeeded.
// Reads arriving while locked or cooling down return ErrIgnored.
func (s *Session) Read(ctx context.Context, code string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrIgnored
	}

	s.mu.Lock()
	s.expireLocked()
	next, ok := transition(s.state, eventRead)
	if !ok {
		s.mu.Unlock()
		return nil, ErrIgnored
	}
	s.state = next
	s.lastCode = code
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	product, err := s.lookup(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A Reset during the lookup started a new generation; leave it alone.
	if s.generation == gen {
		if next, ok := transition(s.state, eventLookupDone); ok {
			s.state = next
			s.cooldownUntil = s.now().Add(s.cooldown)
		}
	}
	return product, err
}

// Reset is the manual "scan again" action: back to idle immediately,
// forgetting the last code.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state, _ = transition(s.state, eventReset)
	s.lastCode = ""
	s.cooldownUntil = time.Time{}
	s.generation++
}

func (s *Session) State() State {
	return s.Snapshot().State
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	return Snapshot{State: s.state, LastCode: s.lastCode, CooldownUntil: s.cooldownUntil}
}

// expireLocked ends the cooldown once its deadline has passed. Callers hold mu.
func (s *Session) expireLocked() {
	if s.state == StateCooldown && !s.now().Before(s.cooldownUntil) {
		s.state, _ = transition(s.state, eventCooldownElapsed)
	}
}
