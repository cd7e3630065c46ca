package rtc

import (
	"sync"
	"time"
)

// System is a Clock backed by the process clock. Adjust records an
// offset rather than changing the host's time.
type System struct {
	mu     sync.Mutex
	offset time.Duration
	now    func() time.Time
}

// NewSystem returns a System clock. If now is nil, time.Now is used.
func NewSystem(now func() time.Time) *System {
	if now == nil {
		now = time.Now
	}
	return &System{now: now}
}

// Now implements Clock.
func (s *System) Now() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Add(s.offset).Round(0), nil
}

// Adjust implements Clock.
func (s *System) Adjust(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = t.Sub(s.now())
	return nil
}

// LostPower implements Clock. The host keeps its own time.
func (s *System) LostPower() (bool, error) {
	return false, nil
}
