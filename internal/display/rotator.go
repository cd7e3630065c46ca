package display

import (
	"time"

	"github.com/sweeney/airmon/internal/schedule"
)

// Page is one of the screens shown in rotation.
type Page int

const (
	PageMass Page = iota
	PageCount
	PageGas
	PageNetwork

	numPages
)

func (p Page) String() string {
	switch p {
	case PageMass:
		return "particulate-mass"
	case PageCount:
		return "particulate-count"
	case PageGas:
		return "gas"
	case PageNetwork:
		return "network"
	}
	return "unknown"
}

// Next returns the page after p, wrapping to the first.
func (p Page) Next() Page {
	return (p + 1) % numPages
}

// Rotator cycles through the pages, holding each for its dwell interval.
type Rotator struct {
	page  Page
	timer schedule.DueTimer
}

// NewRotator returns a Rotator showing the first page from start.
func NewRotator(start time.Time) *Rotator {
	return &Rotator{page: PageMass, timer: schedule.NewDueTimer(start)}
}

// Page returns the current page.
func (r *Rotator) Page() Page {
	return r.page
}

// Tick advances to the next page if the current page has been shown
// for at least its dwell interval. It reports whether the page changed.
func (r *Rotator) Tick(now time.Time, dwell func(Page) time.Duration) bool {
	if !r.timer.Check(now, dwell(r.page)) {
		return false
	}
	r.page = r.page.Next()
	return true
}
