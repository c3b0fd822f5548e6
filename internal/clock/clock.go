// Package clock abstracts the time source used for session expiry and
// booking timestamps so tests can pin the clock to an exact instant.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.  All core components receive a Clock
// instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a controllable clock for deterministic tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual constructs a Manual clock starting at the supplied time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the manual time forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// Set pins the manual time to the supplied instant.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}
