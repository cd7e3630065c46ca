// Package sensor defines the samples produced by the device's sensors,
// the driver interfaces the scheduler needs, and the per-sensor poller.
package sensor

import (
	"fmt"
	"time"

	"github.com/sweeney/airmon/internal/fault"
)

// PMSample is one reading of the particulate-matter sensor.
// Mass concentrations are in µg/m³, number concentrations in #/cm³ and
// the typical particle size in µm.
type PMSample struct {
	MC1p0  float64
	MC2p5  float64
	MC4p0  float64
	MC10p0 float64

	NC0p5  float64
	NC1p0  float64
	NC2p5  float64
	NC4p0  float64
	NC10p0 float64

	TypicalSize float64

	// At is when the sample was read.
	At time.Time
}

// GasSample is one reading of the CO2/temperature/humidity sensor.
type GasSample struct {
	CO2         float64 // ppm
	Temperature float64 // °C
	Humidity    float64 // %RH

	At time.Time
}

// Driver is the part of a sensor driver common to both sensors.
type Driver interface {
	// Name identifies the sensor in logs and metrics.
	Name() string

	// Probe checks that the sensor is present.
	Probe() error

	// StartMeasurement puts the sensor in continuous measurement mode.
	StartMeasurement() error

	// DataReady reports without blocking whether a new measurement
	// can be read.
	DataReady() (bool, error)
}

// PMDriver is a particulate-matter sensor.
type PMDriver interface {
	Driver
	ReadPM() (PMSample, error)
}

// GasDriver is a CO2/temperature/humidity sensor.
type GasDriver interface {
	Driver
	ReadGas() (GasSample, error)

	// ForceRecalibration sets the sensor's reference to ppm.
	ForceRecalibration(ppm uint16) error
	// Recalibration returns the current forced recalibration value.
	Recalibration() (uint16, error)
	// SetTemperatureOffset sets the temperature offset in °C.
	SetTemperatureOffset(c float64) error
	// TemperatureOffset returns the temperature offset in °C.
	TemperatureOffset() (float64, error)
}

// Init probes every driver and starts its measurement. Any failure is
// fatal: the device must not run with a confirmed-absent sensor.
func Init(drivers ...Driver) error {
	for _, d := range drivers {
		if err := d.Probe(); err != nil {
			return fault.New(fault.FatalInit, fmt.Sprintf("probe %s", d.Name()), err)
		}
		if err := d.StartMeasurement(); err != nil {
			return fault.New(fault.FatalInit, fmt.Sprintf("start %s", d.Name()), err)
		}
	}
	return nil
}
