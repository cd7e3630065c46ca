package device

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/sweeney/airmon/internal/datalog"
	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/interval"
)

// The operations below back the web pages. Each touches only its own
// collaborator and must run on the scheduler goroutine.

// SetClock applies t to the real-time clock and returns the value applied.
func (d *Device) SetClock(t time.Time) (time.Time, error) {
	if err := d.cfg.Clock.Adjust(t); err != nil {
		return time.Time{}, fault.New(fault.TransientClock, "set clock", err)
	}
	log.Printf("clock: set to %s", t.Format(time.DateTime))
	return t, nil
}

// Clock returns the current wall-clock time.
func (d *Device) Clock() (time.Time, error) {
	t, err := d.cfg.Clock.Now()
	return t, fault.New(fault.TransientClock, "read clock", err)
}

// OpenLog opens the log file for download and returns it with its size
// at the time of opening. It returns datalog.ErrNotFound if no row has
// been written yet.
func (d *Device) OpenLog() (io.ReadCloser, int64, error) {
	rc, size, err := d.cfg.Storage.OpenForRead(d.state.Logger.Path())
	if errors.Is(err, datalog.ErrNotFound) {
		return nil, 0, err
	}
	if err != nil {
		return nil, 0, fault.New(fault.TransientStorage, "open log", err)
	}
	return rc, size, nil
}

// ForceRecalibration recalibrates the gas sensor against a reference
// concentration in ppm and returns the resulting calibration value.
func (d *Device) ForceRecalibration(ppm uint16) (uint16, error) {
	if err := d.cfg.Gas.ForceRecalibration(ppm); err != nil {
		return 0, fault.New(fault.TransientSensor, "force recalibration", err)
	}
	log.Printf("gas: forced recalibration to %d ppm", ppm)
	return d.Recalibration()
}

// Recalibration returns the gas sensor's current calibration value.
func (d *Device) Recalibration() (uint16, error) {
	v, err := d.cfg.Gas.Recalibration()
	if err != nil {
		return 0, fault.New(fault.TransientSensor, "read recalibration", err)
	}
	return v, nil
}

// SetTemperatureOffset sets the gas sensor's temperature offset in °C
// and returns the value the sensor reports afterwards.
func (d *Device) SetTemperatureOffset(c float64) (float64, error) {
	if err := d.cfg.Gas.SetTemperatureOffset(c); err != nil {
		return 0, fault.New(fault.TransientSensor, "set temperature offset", err)
	}
	log.Printf("gas: temperature offset %.2f °C", c)
	return d.TemperatureOffset()
}

// TemperatureOffset returns the gas sensor's temperature offset in °C.
func (d *Device) TemperatureOffset() (float64, error) {
	v, err := d.cfg.Gas.TemperatureOffset()
	if err != nil {
		return 0, fault.New(fault.TransientSensor, "read temperature offset", err)
	}
	return v, nil
}

// SetIntervals stores a complete submission of intervals and returns the
// clamped values in effect. A partial submission stores nothing and
// returns the current values with interval.ErrPartial.
func (d *Device) SetIntervals(raw interval.Raw) (interval.Set, error) {
	return d.state.Intervals.Update(raw)
}

// Intervals returns the intervals in effect.
func (d *Device) Intervals() interval.Set {
	return d.state.Intervals.Current()
}
