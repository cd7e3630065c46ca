//go:build linux

package i2c

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request selecting the target address (linux/i2c-dev.h).
const i2cSlave = 0x0703

// RealBus talks to /dev/i2c-N.
type RealBus struct {
	mu   sync.Mutex
	f    *os.File
	addr uint16
	set  bool
}

// Open opens the given i2c-dev device.
func Open(path string) (*RealBus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &RealBus{f: f}, nil
}

func (b *RealBus) selectAddr(addr uint16) error {
	if b.set && b.addr == addr {
		return nil
	}
	if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("select i2c address 0x%02x: %w", addr, err)
	}
	b.addr = addr
	b.set = true
	return nil
}

// Write implements Bus.
func (b *RealBus) Write(addr uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectAddr(addr); err != nil {
		return err
	}
	n, err := b.f.Write(data)
	if err != nil {
		return fmt.Errorf("i2c write 0x%02x: %w", addr, err)
	}
	if n != len(data) {
		return fmt.Errorf("i2c write 0x%02x: short write %d/%d", addr, n, len(data))
	}
	return nil
}

// Read implements Bus.
func (b *RealBus) Read(addr uint16, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectAddr(addr); err != nil {
		return err
	}
	n, err := b.f.Read(buf)
	if err != nil {
		return fmt.Errorf("i2c read 0x%02x: %w", addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("i2c read 0x%02x: short read %d/%d", addr, n, len(buf))
	}
	return nil
}

// Close implements Bus.
func (b *RealBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}
