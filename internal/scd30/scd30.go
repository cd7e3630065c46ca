// Package scd30 drives the Sensirion SCD30 CO2, temperature and humidity
// sensor over I2C.
package scd30

import (
	"errors"
	"fmt"
	"math"

	"github.com/sweeney/airmon/internal/i2c"
	"github.com/sweeney/airmon/internal/sensirion"
	"github.com/sweeney/airmon/internal/sensor"
)

// Address is the sensor's fixed I2C address.
const Address = 0x61

const (
	cmdStartContinuous = 0x0010
	cmdInterval        = 0x4600
	cmdDataReady       = 0x0202
	cmdReadMeasurement = 0x0300
	cmdFRC             = 0x5204
	cmdTempOffset      = 0x5403
	cmdFirmware        = 0xd100
)

// Limits accepted by the sensor.
const (
	MinReference = 400
	MaxReference = 2000
)

var (
	// ErrReferenceRange is returned for a recalibration reference
	// outside MinReference..MaxReference.
	ErrReferenceRange = errors.New("scd30: reference must be 400-2000 ppm")
	// ErrOffsetRange is returned for a negative or too large offset.
	ErrOffsetRange = errors.New("scd30: temperature offset must be 0-655.35 °C")
)

// Device is an SCD30 on a bus.
type Device struct {
	dev sensirion.Device
}

var _ sensor.GasDriver = (*Device)(nil)

// New returns the SCD30 on bus.
func New(bus i2c.Bus) *Device {
	return &Device{dev: sensirion.Device{Bus: bus, Addr: Address}}
}

func (d *Device) Name() string { return "scd30" }

// Probe reads the firmware version.
func (d *Device) Probe() error {
	if _, err := d.dev.ReadWords(cmdFirmware, 1); err != nil {
		return fmt.Errorf("scd30 firmware: %w", err)
	}
	return nil
}

// StartMeasurement starts continuous measurement every two seconds
// without pressure compensation.
func (d *Device) StartMeasurement() error {
	if err := d.dev.Command(cmdInterval, 2); err != nil {
		return fmt.Errorf("scd30 interval: %w", err)
	}
	if err := d.dev.Command(cmdStartContinuous, 0); err != nil {
		return fmt.Errorf("scd30 start: %w", err)
	}
	return nil
}

// DataReady implements sensor.Driver.
func (d *Device) DataReady() (bool, error) {
	w, err := d.dev.ReadWords(cmdDataReady, 1)
	if err != nil {
		return false, fmt.Errorf("scd30 data ready: %w", err)
	}
	return w[0] == 1, nil
}

// ReadGas implements sensor.GasDriver.
func (d *Device) ReadGas() (sensor.GasSample, error) {
	w, err := d.dev.ReadWords(cmdReadMeasurement, 6)
	if err != nil {
		return sensor.GasSample{}, fmt.Errorf("scd30 read: %w", err)
	}
	f := sensirion.Floats(w)
	for _, v := range f {
		if math.IsNaN(float64(v)) {
			return sensor.GasSample{}, errors.New("scd30 read: NaN in measurement")
		}
	}
	return sensor.GasSample{
		CO2:         float64(f[0]),
		Temperature: float64(f[1]),
		Humidity:    float64(f[2]),
	}, nil
}

// ForceRecalibration implements sensor.GasDriver.
func (d *Device) ForceRecalibration(ppm uint16) error {
	if ppm < MinReference || ppm > MaxReference {
		return ErrReferenceRange
	}
	if err := d.dev.Command(cmdFRC, ppm); err != nil {
		return fmt.Errorf("scd30 recalibrate: %w", err)
	}
	return nil
}

// Recalibration implements sensor.GasDriver.
func (d *Device) Recalibration() (uint16, error) {
	w, err := d.dev.ReadWords(cmdFRC, 1)
	if err != nil {
		return 0, fmt.Errorf("scd30 recalibration value: %w", err)
	}
	return w[0], nil
}

// SetTemperatureOffset implements sensor.GasDriver. The sensor stores
// the offset in hundredths of a degree.
func (d *Device) SetTemperatureOffset(c float64) error {
	ticks := math.Round(c * 100)
	if math.IsNaN(ticks) || ticks < 0 || ticks > math.MaxUint16 {
		return ErrOffsetRange
	}
	if err := d.dev.Command(cmdTempOffset, uint16(ticks)); err != nil {
		return fmt.Errorf("scd30 temperature offset: %w", err)
	}
	return nil
}

// TemperatureOffset implements sensor.GasDriver.
func (d *Device) TemperatureOffset() (float64, error) {
	w, err := d.dev.ReadWords(cmdTempOffset, 1)
	if err != nil {
		return 0, fmt.Errorf("scd30 temperature offset: %w", err)
	}
	return float64(w[0]) / 100, nil
}
