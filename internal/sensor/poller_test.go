package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/airmon/internal/fault"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return start.Add(time.Duration(ms) * time.Millisecond)
}

func TestPollerNotDueDoesNothing(t *testing.T) {
	f := NewFakePM(PMSample{MC2p5: 5})
	p := NewPMPoller(f, start)

	updated, err := p.Tick(at(1999), 2*time.Second)
	if err != nil || updated {
		t.Fatalf("Tick before due: got (%v, %v), want (false, nil)", updated, err)
	}
	if f.ReadyCalls != 0 {
		t.Errorf("ReadyCalls: got %d, want 0", f.ReadyCalls)
	}
	if _, ok := p.Latest(); ok {
		t.Error("expected no sample yet")
	}
}

func TestPollerReadsWhenDue(t *testing.T) {
	f := NewFakePM(PMSample{MC2p5: 5})
	p := NewPMPoller(f, start)

	updated, err := p.Tick(at(2000), 2*time.Second)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !updated {
		t.Fatal("expected update")
	}
	if p.State() != Updated {
		t.Errorf("State: got %v, want updated", p.State())
	}
	s, ok := p.Latest()
	if !ok || s.MC2p5 != 5 {
		t.Errorf("Latest: got (%+v, %v)", s, ok)
	}
	if !s.At.Equal(at(2000)) {
		t.Errorf("At: got %v, want %v", s.At, at(2000))
	}

	// Next pass returns to idle and waits for the next interval.
	updated, _ = p.Tick(at(2050), 2*time.Second)
	if updated || p.State() != Idle {
		t.Errorf("after update: got (%v, %v), want (false, idle)", updated, p.State())
	}
}

func TestPollerWaitsForDataReady(t *testing.T) {
	f := NewFakeGas(GasSample{CO2: 800})
	f.Ready = false
	p := NewGasPoller(f, start)

	p.Tick(at(2000), 2*time.Second)
	if p.State() != AwaitingData {
		t.Fatalf("State: got %v, want awaiting-data", p.State())
	}
	p.Tick(at(2050), 2*time.Second)
	if f.ReadyCalls != 2 {
		t.Errorf("ReadyCalls: got %d, want 2", f.ReadyCalls)
	}
	if f.ReadCalls != 0 {
		t.Errorf("ReadCalls: got %d, want 0", f.ReadCalls)
	}

	f.Ready = true
	updated, err := p.Tick(at(2100), 2*time.Second)
	if err != nil || !updated {
		t.Fatalf("Tick when ready: got (%v, %v)", updated, err)
	}
	if s, _ := p.Latest(); s.CO2 != 800 {
		t.Errorf("CO2: got %v, want 800", s.CO2)
	}
}

func TestPollerKeepsStaleSampleOnFailure(t *testing.T) {
	f := NewFakeGas(GasSample{CO2: 600, Temperature: 20, Humidity: 40})
	p := NewGasPoller(f, start)
	interval := 2 * time.Second

	if ok, _ := p.Tick(at(2000), interval); !ok {
		t.Fatal("expected first read to succeed")
	}
	good, _ := p.Latest()

	f.ReadError = errors.New("crc mismatch")
	for i := 1; i <= 5; i++ {
		now := at(2000 + i*2000)
		updated, err := p.Tick(now, interval)
		if updated {
			t.Fatalf("cycle %d: unexpected update", i)
		}
		if fault.KindOf(err) != fault.TransientSensor {
			t.Errorf("cycle %d: error kind %v, want transient-sensor", i, fault.KindOf(err))
		}
		if p.State() != Idle {
			t.Errorf("cycle %d: State %v, want idle", i, p.State())
		}
		if got, _ := p.Latest(); got != good {
			t.Errorf("cycle %d: sample changed to %+v", i, got)
		}
	}
	if p.Failures != 5 {
		t.Errorf("Failures: got %d, want 5", p.Failures)
	}
}

func TestPollerRetriesOnNextDueCycle(t *testing.T) {
	f := NewFakePM(PMSample{MC1p0: 1})
	f.ReadyError = errors.New("nack")
	p := NewPMPoller(f, start)
	interval := 2 * time.Second

	p.Tick(at(2000), interval)
	p.Tick(at(2050), interval)
	if f.ReadyCalls != 1 {
		t.Errorf("retry should wait a full interval, ReadyCalls=%d", f.ReadyCalls)
	}

	f.ReadyError = nil
	if ok, _ := p.Tick(at(4000), interval); !ok {
		t.Error("expected retry at next due cycle to succeed")
	}
}

func TestInitProbeFailureIsFatal(t *testing.T) {
	pm := NewFakePM()
	gas := NewFakeGas()
	gas.ProbeError = errors.New("no ack at 0x61")

	err := Init(pm, gas)
	if !fault.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if !pm.Started {
		t.Error("pm sensor should have been started before gas probe failed")
	}
	if gas.Started {
		t.Error("gas sensor must not be started after failed probe")
	}
}

type fakeLine struct {
	active bool
	err    error
}

func (l *fakeLine) Active() (bool, error) { return l.active, l.err }

func TestWithReadyLine(t *testing.T) {
	gas := NewFakeGas(GasSample{CO2: 500})
	line := &fakeLine{}
	d := WithReadyLine(gas, line)

	ready, err := d.DataReady()
	if err != nil || ready {
		t.Errorf("inactive line: got (%v, %v)", ready, err)
	}
	line.active = true
	ready, _ = d.DataReady()
	if !ready {
		t.Error("active line should report ready")
	}
	if gas.ReadyCalls != 0 {
		t.Errorf("bus data-ready should not be used, calls=%d", gas.ReadyCalls)
	}
	line.err = errors.New("gpio")
	if _, err := d.DataReady(); err == nil {
		t.Error("expected line error")
	}
}

func TestSimulatedDrivers(t *testing.T) {
	pm := NewSimulatedPM(1)
	gas := NewSimulatedGas(1)
	if err := Init(pm, gas); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := pm.ReadPM()
	if err != nil || s.MC2p5 <= 0 {
		t.Errorf("ReadPM: got (%+v, %v)", s, err)
	}
	g, err := gas.ReadGas()
	if err != nil || g.CO2 < 400 {
		t.Errorf("ReadGas: got (%+v, %v)", g, err)
	}
	if err := gas.ForceRecalibration(100); err == nil {
		t.Error("expected out-of-range FRC to fail")
	}
}
