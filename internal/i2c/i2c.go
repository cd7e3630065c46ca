// Package i2c provides access to an I2C bus with hardware abstraction.
// The real implementation uses the Linux i2c-dev character device.
// The fake implementation allows testing drivers without hardware.
package i2c

// Bus performs raw transfers to devices on an I2C bus.
type Bus interface {
	// Write sends data to the device at addr.
	Write(addr uint16, data []byte) error

	// Read fills buf from the device at addr.
	Read(addr uint16, buf []byte) error

	// Close releases the bus.
	Close() error
}

// DefaultBus is the bus exposed on the Raspberry Pi header.
const DefaultBus = "/dev/i2c-1"
