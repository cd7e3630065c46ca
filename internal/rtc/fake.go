package rtc

import (
	"context"
	"time"
)

// Fake is a test double for a Clock.
type Fake struct {
	T    time.Time
	Lost bool

	NowError    error
	AdjustError error
	LostError   error

	// Adjusted records every Adjust call.
	Adjusted []time.Time
}

// Now implements Clock.
func (f *Fake) Now() (time.Time, error) {
	if f.NowError != nil {
		return time.Time{}, f.NowError
	}
	return f.T, nil
}

// Adjust implements Clock.
func (f *Fake) Adjust(t time.Time) error {
	if f.AdjustError != nil {
		return f.AdjustError
	}
	f.T = t
	f.Lost = false
	f.Adjusted = append(f.Adjusted, t)
	return nil
}

// LostPower implements Clock.
func (f *Fake) LostPower() (bool, error) {
	if f.LostError != nil {
		return false, f.LostError
	}
	return f.Lost, nil
}

// FakeSource is a TimeSource returning a fixed time or error.
type FakeSource struct {
	T   time.Time
	Err error
}

// Time implements TimeSource.
func (f FakeSource) Time(ctx context.Context) (time.Time, error) {
	return f.T, f.Err
}
