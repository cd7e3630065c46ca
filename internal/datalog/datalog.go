// Package datalog appends the latest sensor readings to a CSV file on
// removable storage.
package datalog

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/rtc"
	"github.com/sweeney/airmon/internal/schedule"
	"github.com/sweeney/airmon/internal/sensor"
)

// Header is the first row of every log file.
const Header = "Date,Time,MC1.0,MC2.5,MC4.0,MC10.0,NC0.5,NC1.0,NC2.5,NC4.0,NC10.0,ParticleSize,CO2,Temp,Humidity"

// DefaultFile is the log file name on the storage.
const DefaultFile = "datalog.csv"

// Record is one row of the log.
type Record struct {
	Time time.Time
	PM   sensor.PMSample
	Gas  sensor.GasSample
}

// CSV formats the record as a log row.
func (r Record) CSV() string {
	fields := []float64{
		r.PM.MC1p0, r.PM.MC2p5, r.PM.MC4p0, r.PM.MC10p0,
		r.PM.NC0p5, r.PM.NC1p0, r.PM.NC2p5, r.PM.NC4p0, r.PM.NC10p0,
		r.PM.TypicalSize,
		r.Gas.CO2, r.Gas.Temperature, r.Gas.Humidity,
	}
	var b strings.Builder
	b.WriteString(r.Time.Format("02-01-2006,15:04:05"))
	for _, f := range fields {
		fmt.Fprintf(&b, ",%.2f", f)
	}
	return b.String()
}

// Logger writes a record every time its interval elapses.
type Logger struct {
	storage Storage
	path    string
	kv      kv.Store
	timer   schedule.DueTimer

	// OnRecord is called after each successful append.
	OnRecord func(Record)

	Rows     int
	Failures int
}

// New returns a Logger appending to path on storage and checkpointing
// the wall-clock time in store. Its timer starts at start.
func New(storage Storage, path string, store kv.Store, start time.Time) *Logger {
	return &Logger{
		storage: storage,
		path:    path,
		kv:      store,
		timer:   schedule.NewDueTimer(start),
	}
}

// Path returns the log file path on storage.
func (l *Logger) Path() string {
	return l.path
}

// Tick appends a record stamped ts if the logging interval has elapsed
// at monotonic time now. It reports whether a row was written. A failed
// append is logged and left for the next due cycle.
func (l *Logger) Tick(now, ts time.Time, interval time.Duration, pm sensor.PMSample, gas sensor.GasSample) (bool, error) {
	if !l.timer.Check(now, interval) {
		return false, nil
	}
	rec := Record{Time: ts, PM: pm, Gas: gas}
	if err := l.append(rec); err != nil {
		l.Failures++
		err = fault.New(fault.TransientStorage, "datalog append", err)
		log.Printf("datalog: %v", err)
		return false, err
	}
	l.Rows++
	if err := rtc.SaveCheckpoint(l.kv, ts); err != nil {
		log.Printf("datalog: %v", err)
	}
	if l.OnRecord != nil {
		l.OnRecord(rec)
	}
	return true, nil
}

func (l *Logger) append(rec Record) error {
	size, err := l.storage.Size(l.path)
	if err != nil {
		return err
	}
	if size == 0 {
		if err := l.storage.AppendLine(l.path, Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return l.storage.AppendLine(l.path, rec.CSV())
}
