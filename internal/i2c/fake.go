package i2c

import (
	"errors"
	"fmt"
)

// FakeBus is a test double that records writes and returns scripted reads.
type FakeBus struct {
	// Writes records every Write call in order.
	Writes []Transfer

	// Replies holds, per address, the data returned by successive Read
	// calls. Each Read consumes one reply.
	Replies map[uint16][][]byte

	// Handler, if set, is consulted before Replies. It receives the last
	// data written to addr and returns the bytes to read.
	Handler func(addr uint16, lastWrite []byte, n int) ([]byte, error)

	// Err, if set, is returned by every Write and Read.
	Err error

	// Closed tracks if Close was called.
	Closed bool

	last map[uint16][]byte
}

// Transfer is a recorded write.
type Transfer struct {
	Addr uint16
	Data []byte
}

// NewFakeBus returns an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		Replies: make(map[uint16][][]byte),
		last:    make(map[uint16][]byte),
	}
}

// Write records the transfer.
func (f *FakeBus) Write(addr uint16, data []byte) error {
	if f.Err != nil {
		return f.Err
	}
	d := append([]byte(nil), data...)
	f.Writes = append(f.Writes, Transfer{Addr: addr, Data: d})
	f.last[addr] = d
	return nil
}

// Read returns the next scripted reply for addr.
func (f *FakeBus) Read(addr uint16, buf []byte) error {
	if f.Err != nil {
		return f.Err
	}
	if f.Handler != nil {
		data, err := f.Handler(addr, f.last[addr], len(buf))
		if err != nil {
			return err
		}
		copy(buf, data)
		return nil
	}
	q := f.Replies[addr]
	if len(q) == 0 {
		return fmt.Errorf("fake i2c: no reply queued for 0x%02x", addr)
	}
	if len(q[0]) < len(buf) {
		return errors.New("fake i2c: reply too short")
	}
	copy(buf, q[0])
	f.Replies[addr] = q[1:]
	return nil
}

// Queue appends a reply for addr.
func (f *FakeBus) Queue(addr uint16, data []byte) {
	f.Replies[addr] = append(f.Replies[addr], data)
}

// Close marks the bus as closed.
func (f *FakeBus) Close() error {
	f.Closed = true
	return nil
}
