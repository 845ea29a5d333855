package quota

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/ajiwo/qlimit/dequeue"
)

// Decision is the outcome of an admission attempt
type Decision uint8

const (
	// Admitted means the invocation may start now
	Admitted Decision = iota
	// DeniedConcurrency means the concurrency ceiling is reached
	DeniedConcurrency
	// DeniedRate means the sliding-window rate ceiling would be exceeded
	DeniedRate
)

// String returns the label used in logs and metrics
func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case DeniedConcurrency:
		return "concurrency"
	case DeniedRate:
		return "rate"
	default:
		return "unknown"
	}
}

// Manager keeps track of invocations, allowing or denying new ones according
// to its quota. It owns the admission history used for the sliding window and
// the count of running invocations.
//
// A Manager is safe for concurrent use and may be shared by several limiters,
// in which case they share its capacity.
type Manager struct {
	quota         Quota
	effectiveRate float64
	clock         clock.PassiveClock

	mu      sync.Mutex
	active  int
	history *dequeue.Deque[time.Time]
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithClock sets the time source used to stamp and expire admissions
func WithClock(c clock.PassiveClock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewManager validates q and creates a manager for it
func NewManager(q Quota, opts ...ManagerOption) (*Manager, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		quota:         q,
		effectiveRate: q.Rate,
		clock:         clock.RealClock{},
		history:       dequeue.New[time.Time](),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Quota returns a copy of the configured quota
func (m *Manager) Quota() Quota {
	return m.quota
}

// ActiveCount returns the number of running invocations
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// MaxDelay returns the maximum queuing delay, 0 if unset
func (m *Manager) MaxDelay() time.Duration {
	return m.quota.MaxDelay
}

// EffectiveRate returns the rate ceiling admissions are checked against.
// It is currently the configured rate.
func (m *Manager) EffectiveRate() float64 {
	return m.effectiveRate
}

// Clock returns the manager's time source
func (m *Manager) Clock() clock.PassiveClock {
	return m.clock
}

// TryAdmit reports whether one more invocation may start now and, if so,
// counts it as active. See Admit.
func (m *Manager) TryAdmit(pending, weight float64) bool {
	return m.Admit(pending, weight) == Admitted
}

// Admit decides whether the invocation at the head of a queue may start.
//
// pending is the total weight waiting in the caller's queue and is the
// candidate checked against the rate budget; weight is the head invocation's
// own weight and is what gets recorded in the history. When the window is
// empty only weight is checked, so a queue heavier than the whole rate still
// makes progress one invocation at a time.
//
// Denied attempts leave no trace in the history.
func (m *Manager) Admit(pending, weight float64) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Concurrency first so that a saturated manager never advances the window
	if m.quota.HasConcurrency() && m.active >= m.quota.Concurrency {
		return DeniedConcurrency
	}

	if m.quota.HasRate() {
		now := m.clock.Now()
		m.expireLocked(now)

		candidate := pending
		if m.history.Len() == 0 {
			candidate = weight
		}
		if m.history.Weight()+candidate > m.effectiveRate {
			return DeniedRate
		}
		m.history.PushBack(now, weight)
	}

	m.active++
	return Admitted
}

// Release records that an admitted invocation finished, successfully or not
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == 0 {
		return ErrNotActive
	}
	m.active--
	return nil
}

// WindowWeight returns the weight admitted within the current window
func (m *Manager) WindowWeight() float64 {
	if !m.quota.HasRate() {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(m.clock.Now())
	return m.history.Weight()
}

// NextExpiry returns when the oldest admission leaves the window
func (m *Manager) NextExpiry() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldest, ok := m.history.PeekFront()
	if !ok {
		return time.Time{}, false
	}
	return oldest.Add(m.quota.Interval), true
}

// expireLocked drops admissions older than now - interval
func (m *Manager) expireLocked(now time.Time) {
	cutoff := now.Add(-m.quota.Interval)
	for {
		oldest, ok := m.history.PeekFront()
		if !ok || !oldest.Before(cutoff) {
			return
		}
		m.history.PopFront()
	}
}
