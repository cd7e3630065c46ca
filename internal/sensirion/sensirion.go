// Package sensirion implements the command framing shared by Sensirion
// I2C sensors: 16-bit command words followed by 16-bit data words, each
// data word protected by a CRC-8.
package sensirion

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sweeney/airmon/internal/i2c"
)

// ErrCRC is returned when a received word fails its checksum.
var ErrCRC = errors.New("sensirion: crc mismatch")

// Sleep is the delay between issuing a read command and fetching the
// response. Tests replace it.
var Sleep = time.Sleep

// ReadDelay is how long the sensors need to prepare a response.
const ReadDelay = 5 * time.Millisecond

// CRC computes the CRC-8 (polynomial 0x31, init 0xff) of data.
func CRC(data []byte) byte {
	crc := byte(0xff)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Encode returns the wire form of cmd followed by the given words.
func Encode(cmd uint16, args ...uint16) []byte {
	buf := make([]byte, 2, 2+3*len(args))
	binary.BigEndian.PutUint16(buf, cmd)
	for _, a := range args {
		w := []byte{byte(a >> 8), byte(a)}
		buf = append(buf, w[0], w[1], CRC(w))
	}
	return buf
}

// Decode checks and strips the CRC bytes of a response.
func Decode(data []byte) ([]uint16, error) {
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("sensirion: response length %d not a multiple of 3", len(data))
	}
	words := make([]uint16, 0, len(data)/3)
	for i := 0; i < len(data); i += 3 {
		if CRC(data[i:i+2]) != data[i+2] {
			return nil, fmt.Errorf("%w at word %d", ErrCRC, i/3)
		}
		words = append(words, binary.BigEndian.Uint16(data[i:i+2]))
	}
	return words, nil
}

// Floats interprets pairs of words as big-endian IEEE-754 values.
func Floats(words []uint16) []float32 {
	out := make([]float32, 0, len(words)/2)
	for i := 0; i+1 < len(words); i += 2 {
		out = append(out, math.Float32frombits(uint32(words[i])<<16|uint32(words[i+1])))
	}
	return out
}

// Device is a Sensirion sensor at a fixed bus address.
type Device struct {
	Bus  i2c.Bus
	Addr uint16
}

// Command sends cmd with optional arguments.
func (d Device) Command(cmd uint16, args ...uint16) error {
	return d.Bus.Write(d.Addr, Encode(cmd, args...))
}

// ReadWords sends cmd and reads back n data words.
func (d Device) ReadWords(cmd uint16, n int) ([]uint16, error) {
	if err := d.Bus.Write(d.Addr, Encode(cmd)); err != nil {
		return nil, err
	}
	Sleep(ReadDelay)
	buf := make([]byte, 3*n)
	if err := d.Bus.Read(d.Addr, buf); err != nil {
		return nil, err
	}
	return Decode(buf)
}

// Response builds the wire form of a response containing words.
// It is the inverse of Decode and is used by fakes.
func Response(words ...uint16) []byte {
	return Encode(0, words...)[2:]
}

// FloatWords splits values into the word pairs a sensor would send.
func FloatWords(values ...float32) []uint16 {
	out := make([]uint16, 0, 2*len(values))
	for _, v := range values {
		b := math.Float32bits(v)
		out = append(out, uint16(b>>16), uint16(b))
	}
	return out
}
