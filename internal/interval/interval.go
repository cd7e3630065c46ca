// Package interval owns the user-configurable timing parameters: how long
// each display page is shown and how often the sensors are read and a log
// row is written.
package interval

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/airmon/internal/kv"
)

// ErrPartial is returned by Update when not every field was submitted.
var ErrPartial = errors.New("interval: not submitted, all fields are required")

// Name identifies one of the seven intervals.
type Name int

const (
	PageMass Name = iota
	PageCount
	PageGas
	PageNetwork
	ReadPM
	ReadGas
	Log

	numNames
)

// Bounds for display pages and for sensor/log activities.
const (
	PageMin     = 500 * time.Millisecond
	PageMax     = 120 * time.Second
	ActivityMin = 2 * time.Second
	ActivityMax = 10 * time.Minute
)

// Field describes how one interval is stored, submitted and bounded.
type Field struct {
	Name    Name
	Key     string // persisted key
	Form    string // web form field
	Label   string
	Default time.Duration
	Min     time.Duration
	Max     time.Duration
}

// Fields lists every interval in display order.
var Fields = [numNames]Field{
	{PageMass, "page_mass", "pm", "Particulate mass page", 3 * time.Second, PageMin, PageMax},
	{PageCount, "page_count", "nc", "Particulate count page", 3 * time.Second, PageMin, PageMax},
	{PageGas, "page_gas", "gas", "CO2 page", 3 * time.Second, PageMin, PageMax},
	{PageNetwork, "page_network", "net", "Network page", 3 * time.Second, PageMin, PageMax},
	{ReadPM, "read_pm", "pmread", "Particulate sensor read", 2 * time.Second, ActivityMin, ActivityMax},
	{ReadGas, "read_gas", "gasread", "CO2 sensor read", 2 * time.Second, ActivityMin, ActivityMax},
	{Log, "log", "log", "Log", 20 * time.Second, ActivityMin, ActivityMax},
}

// Clamp returns d limited to the field's bounds.
func (f Field) Clamp(d time.Duration) time.Duration {
	if d < f.Min {
		return f.Min
	}
	if d > f.Max {
		return f.Max
	}
	return d
}

// Set is a complete, valid set of intervals.
type Set [numNames]time.Duration

// Get returns the interval with the given name.
func (s Set) Get(n Name) time.Duration {
	return s[n]
}

// Defaults returns the compiled-in interval set.
func Defaults() Set {
	var s Set
	for _, f := range Fields {
		s[f.Name] = f.Default
	}
	return s
}

func (s Set) String() string {
	parts := make([]string, 0, numNames)
	for _, f := range Fields {
		parts = append(parts, fmt.Sprintf("%s=%dms", f.Key, s[f.Name].Milliseconds()))
	}
	return strings.Join(parts, " ")
}

// Raw is a candidate submission in milliseconds. Absent names were
// not submitted.
type Raw map[Name]uint64

// Complete reports whether every interval is present.
func (r Raw) Complete() bool {
	for _, f := range Fields {
		if _, ok := r[f.Name]; !ok {
			return false
		}
	}
	return true
}

// ParseForm extracts a Raw submission from web form values. Fields that
// are missing or not numeric are left out. Numbers too large to
// represent are kept as the largest value so that they clamp to max.
func ParseForm(v url.Values) Raw {
	r := make(Raw)
	for _, f := range Fields {
		s := strings.TrimSpace(v.Get(f.Form))
		if s == "" {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				r[f.Name] = math.MaxUint64
			}
			continue
		}
		r[f.Name] = n
	}
	return r
}

func msToDuration(ms uint64) time.Duration {
	if ms > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// Store loads and persists the interval set.
type Store struct {
	kv      kv.Store
	current Set
}

// NewStore returns a Store holding the defaults; call Load to read
// the persisted values.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s, current: Defaults()}
}

// Load reads each interval from the key-value store, falling back to its
// default when absent or unreadable.
func (s *Store) Load() Set {
	set := Defaults()
	for _, f := range Fields {
		ms, err := s.kv.GetUint(f.Key, uint64(f.Default.Milliseconds()))
		if err != nil {
			log.Printf("interval: load %s: %v (using default)", f.Key, err)
			continue
		}
		set[f.Name] = f.Clamp(msToDuration(ms))
	}
	s.current = set
	return set
}

// Current returns the interval set in effect.
func (s *Store) Current() Set {
	return s.current
}

// Update clamps every submitted value into its bounds and persists the
// resulting set as a single write. A partial submission is not applied:
// Update returns the current set and ErrPartial. If the write fails the
// current set is unchanged.
func (s *Store) Update(raw Raw) (Set, error) {
	if !raw.Complete() {
		return s.current, ErrPartial
	}
	var next Set
	entries := make([]kv.Entry, 0, numNames)
	for _, f := range Fields {
		next[f.Name] = f.Clamp(msToDuration(raw[f.Name]))
		entries = append(entries, kv.Uint(f.Key, uint64(next[f.Name].Milliseconds())))
	}
	if err := s.kv.Put(entries...); err != nil {
		return s.current, fmt.Errorf("persist intervals: %w", err)
	}
	s.current = next
	log.Printf("interval: updated %s", next)
	return next, nil
}
