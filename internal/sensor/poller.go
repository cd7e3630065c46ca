package sensor

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/schedule"
)

// State is the poller's position in its read cycle.
type State int

const (
	Idle State = iota
	AwaitingData
	Updated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingData:
		return "awaiting-data"
	case Updated:
		return "updated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Poller reads one sensor on its own due-timer and holds the latest
// successful sample. A failed check or read never alters the latest
// sample; it is retried on the next due cycle.
type Poller[T any] struct {
	drv   Driver
	read  func() (T, error)
	stamp func(*T, time.Time)

	timer  schedule.DueTimer
	state  State
	latest T
	have   bool

	// Reads and Failures count completed reads and failed attempts.
	Reads    int
	Failures int
}

// NewPMPoller returns a poller for a particulate sensor whose timer
// starts at start.
func NewPMPoller(d PMDriver, start time.Time) *Poller[PMSample] {
	return &Poller[PMSample]{
		drv:   d,
		read:  d.ReadPM,
		stamp: func(s *PMSample, t time.Time) { s.At = t },
		timer: schedule.NewDueTimer(start),
	}
}

// NewGasPoller returns a poller for a gas sensor whose timer starts
// at start.
func NewGasPoller(d GasDriver, start time.Time) *Poller[GasSample] {
	return &Poller[GasSample]{
		drv:   d,
		read:  d.ReadGas,
		stamp: func(s *GasSample, t time.Time) { s.At = t },
		timer: schedule.NewDueTimer(start),
	}
}

// Name returns the name of the polled sensor.
func (p *Poller[T]) Name() string {
	return p.drv.Name()
}

// State returns the current poller state.
func (p *Poller[T]) State() State {
	return p.state
}

// Latest returns the most recent successful sample and whether there
// has been one.
func (p *Poller[T]) Latest() (T, bool) {
	return p.latest, p.have
}

// Tick advances the poller by one scheduler pass. It reports whether a
// new sample was stored. The returned error, if any, is transient and
// has already been logged.
func (p *Poller[T]) Tick(now time.Time, interval time.Duration) (bool, error) {
	if p.state == Updated {
		p.state = Idle
	}
	if p.state == Idle {
		if !p.timer.Due(now, interval) {
			return false, nil
		}
		p.state = AwaitingData
	}

	ready, err := p.drv.DataReady()
	if err != nil {
		return false, p.fail(now, "data ready", err)
	}
	if !ready {
		// Check again on the next pass.
		return false, nil
	}
	v, err := p.read()
	if err != nil {
		return false, p.fail(now, "read", err)
	}
	p.stamp(&v, now)
	p.latest = v
	p.have = true
	p.state = Updated
	p.Reads++
	p.timer.Fire(now)
	return true, nil
}

func (p *Poller[T]) fail(now time.Time, op string, err error) error {
	p.Failures++
	p.state = Idle
	p.timer.Fire(now)
	err = fault.New(fault.TransientSensor, fmt.Sprintf("%s %s", p.drv.Name(), op), err)
	log.Printf("sensor: %v", err)
	return err
}
