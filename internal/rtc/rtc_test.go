package rtc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beevik/ntp"

	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/i2c"
	"github.com/sweeney/airmon/internal/kv"
)

func TestDS3231Now(t *testing.T) {
	bus := i2c.NewFakeBus()
	// 2026-03-14 15:09:26, 24-hour mode.
	bus.Queue(DS3231Address, []byte{0x26, 0x09, 0x15, 0x06, 0x14, 0x03, 0x26})
	d := NewDS3231(bus, time.UTC)

	got, err := d.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	want := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Now: got %v, want %v", got, want)
	}
}

func TestDS3231TwelveHourMode(t *testing.T) {
	bus := i2c.NewFakeBus()
	// 11 PM in 12-hour mode: bit6 set, bit5 (PM) set, hours 11.
	bus.Queue(DS3231Address, []byte{0x00, 0x30, 0x40 | 0x20 | 0x11, 0x01, 0x01, 0x01, 0x26})
	got, err := NewDS3231(bus, time.UTC).Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if got.Hour() != 23 {
		t.Errorf("Hour: got %d, want 23", got.Hour())
	}
}

func TestDS3231AdjustClearsOSF(t *testing.T) {
	bus := i2c.NewFakeBus()
	bus.Queue(DS3231Address, []byte{0x88}) // status with OSF set
	d := NewDS3231(bus, time.UTC)

	if err := d.Adjust(time.Date(2026, 12, 31, 23, 59, 58, 0, time.UTC)); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	want := []byte{0x00, 0x58, 0x59, 0x23, 0x05, 0x31, 0x12, 0x26}
	if string(bus.Writes[0].Data) != string(want) {
		t.Errorf("time regs: got % x, want % x", bus.Writes[0].Data, want)
	}
	last := bus.Writes[len(bus.Writes)-1].Data
	if last[0] != regStatus || last[1] != 0x08 {
		t.Errorf("status write: got % x, want 0f 08", last)
	}
}

func TestDS3231LostPower(t *testing.T) {
	bus := i2c.NewFakeBus()
	bus.Queue(DS3231Address, []byte{0x80})
	lost, err := NewDS3231(bus, time.UTC).LostPower()
	if err != nil || !lost {
		t.Errorf("LostPower: got (%v, %v), want true", lost, err)
	}
}

func TestSystemAdjust(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSystem(func() time.Time { return base })
	target := base.Add(90 * time.Minute)

	s.Adjust(target)
	got, _ := s.Now()
	if !got.Equal(target) {
		t.Errorf("Now after Adjust: got %v, want %v", got, target)
	}
}

func TestRecoverNotLost(t *testing.T) {
	c := &Fake{T: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	if err := Recover(context.Background(), c, kv.NewMemStore(), nil); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(c.Adjusted) != 0 {
		t.Errorf("clock should not be adjusted, got %v", c.Adjusted)
	}
}

func TestRecoverFromCheckpoint(t *testing.T) {
	store := kv.NewMemStore()
	last := time.Date(2026, 4, 30, 18, 0, 0, 0, time.UTC)
	if err := SaveCheckpoint(store, last); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	c := &Fake{Lost: true}
	src := FakeSource{Err: errors.New("offline")}

	if err := Recover(context.Background(), c, store, src); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(c.Adjusted) != 1 || !c.Adjusted[0].Equal(last) {
		t.Errorf("Adjusted: got %v, want [%v]", c.Adjusted, last)
	}
}

func TestRecoverPrefersTimeSource(t *testing.T) {
	store := kv.NewMemStore()
	SaveCheckpoint(store, time.Date(2026, 4, 30, 18, 0, 0, 0, time.UTC))
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	c := &Fake{Lost: true}

	if err := Recover(context.Background(), c, store, FakeSource{T: now}); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(c.Adjusted) != 1 || !c.Adjusted[0].Equal(now) {
		t.Errorf("Adjusted: got %v, want [%v]", c.Adjusted, now)
	}
}

func TestRecoverNoCheckpoint(t *testing.T) {
	c := &Fake{Lost: true}
	if err := Recover(context.Background(), c, kv.NewMemStore(), nil); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(c.Adjusted) != 0 {
		t.Errorf("no checkpoint: clock should be left alone, got %v", c.Adjusted)
	}
}

func TestRecoverClockAbsentIsFatal(t *testing.T) {
	c := &Fake{LostError: errors.New("no ack")}
	err := Recover(context.Background(), c, kv.NewMemStore(), nil)
	if !fault.IsFatal(err) {
		t.Errorf("expected fatal error, got %v", err)
	}
}

func TestNTPUsesOffset(t *testing.T) {
	old := ntpQuery
	defer func() { ntpQuery = old }()
	var gotHost string
	ntpQuery = func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		gotHost = host
		return nil, errors.New("unreachable")
	}

	_, err := NTP{}.Time(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if gotHost != DefaultNTPHost {
		t.Errorf("host: got %q, want %q", gotHost, DefaultNTPHost)
	}
}
