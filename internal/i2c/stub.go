//go:build !linux

package i2c

import "errors"

// RealBus is not available on non-Linux platforms.
type RealBus struct{}

// Open returns an error on non-Linux platforms.
func Open(path string) (*RealBus, error) {
	return nil, errors.New("i2c: not supported on this platform (requires Linux)")
}

// Write is not implemented on non-Linux platforms.
func (b *RealBus) Write(addr uint16, data []byte) error {
	return errors.New("i2c: not supported")
}

// Read is not implemented on non-Linux platforms.
func (b *RealBus) Read(addr uint16, buf []byte) error {
	return errors.New("i2c: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBus) Close() error {
	return nil
}
