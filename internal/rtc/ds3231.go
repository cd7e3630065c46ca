package rtc

import (
	"fmt"
	"time"

	"github.com/sweeney/airmon/internal/i2c"
)

// DS3231Address is the chip's fixed I2C address.
const DS3231Address = 0x68

const (
	regSeconds = 0x00
	regStatus  = 0x0f

	statusOSF = 0x80 // oscillator stop flag
)

// DS3231 is a battery-backed clock chip. It holds wall-clock time in
// the given location with no zone information.
type DS3231 struct {
	bus i2c.Bus
	loc *time.Location
}

// NewDS3231 returns the DS3231 on bus. If loc is nil, time.Local is used.
func NewDS3231(bus i2c.Bus, loc *time.Location) *DS3231 {
	if loc == nil {
		loc = time.Local
	}
	return &DS3231{bus: bus, loc: loc}
}

func bcd(v byte) int   { return int(v>>4)*10 + int(v&0x0f) }
func tobcd(v int) byte { return byte(v/10)<<4 | byte(v%10) }

func (d *DS3231) readRegs(reg byte, n int) ([]byte, error) {
	if err := d.bus.Write(DS3231Address, []byte{reg}); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.bus.Read(DS3231Address, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Now implements Clock.
func (d *DS3231) Now() (time.Time, error) {
	r, err := d.readRegs(regSeconds, 7)
	if err != nil {
		return time.Time{}, fmt.Errorf("ds3231 read time: %w", err)
	}
	sec := bcd(r[0] & 0x7f)
	min := bcd(r[1] & 0x7f)
	var hour int
	if r[2]&0x40 != 0 {
		// 12-hour mode.
		hour = bcd(r[2]&0x1f) % 12
		if r[2]&0x20 != 0 {
			hour += 12
		}
	} else {
		hour = bcd(r[2] & 0x3f)
	}
	day := bcd(r[4] & 0x3f)
	month := bcd(r[5] & 0x1f)
	year := 2000 + bcd(r[6])
	if r[5]&0x80 != 0 {
		year += 100
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, d.loc), nil
}

// Adjust implements Clock. It also clears the oscillator stop flag.
func (d *DS3231) Adjust(t time.Time) error {
	t = t.In(d.loc)
	year := t.Year() - 2000
	var century byte
	if year >= 100 {
		year -= 100
		century = 0x80
	}
	if year < 0 {
		return fmt.Errorf("ds3231: year %d out of range", t.Year())
	}
	regs := []byte{
		regSeconds,
		tobcd(t.Second()),
		tobcd(t.Minute()),
		tobcd(t.Hour()),
		byte(t.Weekday()) + 1,
		tobcd(t.Day()),
		tobcd(int(t.Month())) | century,
		tobcd(year),
	}
	if err := d.bus.Write(DS3231Address, regs); err != nil {
		return fmt.Errorf("ds3231 set time: %w", err)
	}
	st, err := d.readRegs(regStatus, 1)
	if err != nil {
		return fmt.Errorf("ds3231 read status: %w", err)
	}
	if err := d.bus.Write(DS3231Address, []byte{regStatus, st[0] &^ statusOSF}); err != nil {
		return fmt.Errorf("ds3231 clear OSF: %w", err)
	}
	return nil
}

// LostPower implements Clock.
func (d *DS3231) LostPower() (bool, error) {
	st, err := d.readRegs(regStatus, 1)
	if err != nil {
		return false, fmt.Errorf("ds3231 read status: %w", err)
	}
	return st[0]&statusOSF != 0, nil
}
