// Package sps30 drives the Sensirion SPS30 particulate-matter sensor
// over I2C.
package sps30

import (
	"fmt"

	"github.com/sweeney/airmon/internal/i2c"
	"github.com/sweeney/airmon/internal/sensirion"
	"github.com/sweeney/airmon/internal/sensor"
)

// Address is the sensor's fixed I2C address.
const Address = 0x69

const (
	cmdStart       = 0x0010
	cmdStop        = 0x0104
	cmdDataReady   = 0x0202
	cmdReadValues  = 0x0300
	cmdProductType = 0xd002

	// Argument to cmdStart selecting big-endian float output.
	floatFormat = 0x0300
)

// Device is an SPS30 on a bus.
type Device struct {
	dev sensirion.Device
}

var _ sensor.PMDriver = (*Device)(nil)

// New returns the SPS30 on bus.
func New(bus i2c.Bus) *Device {
	return &Device{dev: sensirion.Device{Bus: bus, Addr: Address}}
}

func (d *Device) Name() string { return "sps30" }

// Probe reads the product type.
func (d *Device) Probe() error {
	if _, err := d.dev.ReadWords(cmdProductType, 4); err != nil {
		return fmt.Errorf("sps30 product type: %w", err)
	}
	return nil
}

// StartMeasurement implements sensor.Driver.
func (d *Device) StartMeasurement() error {
	if err := d.dev.Command(cmdStart, floatFormat); err != nil {
		return fmt.Errorf("sps30 start: %w", err)
	}
	return nil
}

// Stop ends measurement mode.
func (d *Device) Stop() error {
	return d.dev.Command(cmdStop)
}

// DataReady implements sensor.Driver.
func (d *Device) DataReady() (bool, error) {
	w, err := d.dev.ReadWords(cmdDataReady, 1)
	if err != nil {
		return false, fmt.Errorf("sps30 data ready: %w", err)
	}
	return w[0]&0xff == 1, nil
}

// ReadPM implements sensor.PMDriver.
func (d *Device) ReadPM() (sensor.PMSample, error) {
	w, err := d.dev.ReadWords(cmdReadValues, 20)
	if err != nil {
		return sensor.PMSample{}, fmt.Errorf("sps30 read: %w", err)
	}
	f := sensirion.Floats(w)
	return sensor.PMSample{
		MC1p0:       float64(f[0]),
		MC2p5:       float64(f[1]),
		MC4p0:       float64(f[2]),
		MC10p0:      float64(f[3]),
		NC0p5:       float64(f[4]),
		NC1p0:       float64(f[5]),
		NC2p5:       float64(f[6]),
		NC4p0:       float64(f[7]),
		NC10p0:      float64(f[8]),
		TypicalSize: float64(f[9]),
	}, nil
}
