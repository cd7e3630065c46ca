// Package device holds the application state of the monitor and runs one
// cooperative scheduler pass at a time.
package device

import (
	"errors"
	"log"
	"time"

	"github.com/sweeney/airmon/internal/datalog"
	"github.com/sweeney/airmon/internal/display"
	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/interval"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/metrics"
	"github.com/sweeney/airmon/internal/rtc"
	"github.com/sweeney/airmon/internal/sensor"
	"github.com/sweeney/airmon/internal/status"
)

// Config lists the collaborators of a Device. Clock, Display, Storage,
// KV, PM and Gas are required.
type Config struct {
	Clock   rtc.Clock
	Display display.Display
	Storage datalog.Storage
	LogFile string
	KV      kv.Store
	PM      sensor.PMDriver
	Gas     sensor.GasDriver

	// Optional.
	Metrics       *metrics.Metrics
	OnRecord      func(datalog.Record)
	MQTTConnected func() bool
	Info          status.Config
}

// RequestSource hands the scheduler at most one pending request per pass.
type RequestSource interface {
	// ServeOne runs one pending request, if any, and reports whether it
	// did. It never waits for a request to arrive.
	ServeOne() bool
}

// State is everything the scheduler pass reads and writes.
type State struct {
	Intervals *interval.Store
	PM        *sensor.Poller[sensor.PMSample]
	Gas       *sensor.Poller[sensor.GasSample]
	Rotator   *display.Rotator
	Logger    *datalog.Logger
	Network   *status.NetworkInfo

	// Timestamp is the wall-clock time read in the last pass and Mono
	// the monotonic time of that pass.
	Timestamp time.Time
	Mono      time.Time
}

// Device is the monitor. All methods must be called from the goroutine
// running the scheduler.
type Device struct {
	cfg   Config
	id    string
	start time.Time
	state State
}

type storageChecker interface {
	Check() error
}

// New checks the required peripherals, probes and starts both sensors,
// loads the intervals and returns a Device whose timers start at now.
// Any returned error is of kind fault.FatalInit.
func New(cfg Config, now time.Time) (*Device, error) {
	if cfg.Clock == nil || cfg.Display == nil || cfg.Storage == nil || cfg.KV == nil || cfg.PM == nil || cfg.Gas == nil {
		return nil, fault.New(fault.FatalInit, "device", errors.New("missing collaborator"))
	}
	if cfg.LogFile == "" {
		cfg.LogFile = datalog.DefaultFile
	}

	cfg.Display.Clear()
	if err := cfg.Display.Present(); err != nil {
		return nil, fault.New(fault.FatalInit, "display", err)
	}
	ts, err := cfg.Clock.Now()
	if err != nil {
		return nil, fault.New(fault.FatalInit, "clock", err)
	}
	if c, ok := cfg.Storage.(storageChecker); ok {
		if err := c.Check(); err != nil {
			return nil, fault.New(fault.FatalInit, "storage", err)
		}
	}
	if err := sensor.Init(cfg.PM, cfg.Gas); err != nil {
		return nil, err
	}

	id, err := EnsureID(cfg.KV)
	if err != nil {
		log.Printf("device: %v", err)
	}
	if cfg.Info.DeviceID == "" {
		cfg.Info.DeviceID = id
	}
	cfg.Info.LogFile = cfg.LogFile

	intervals := interval.NewStore(cfg.KV)
	set := intervals.Load()
	log.Printf("device: intervals %v", set)

	d := &Device{
		cfg:   cfg,
		id:    cfg.Info.DeviceID,
		start: now,
		state: State{
			Intervals: intervals,
			PM:        sensor.NewPMPoller(cfg.PM, now),
			Gas:       sensor.NewGasPoller(cfg.Gas, now),
			Rotator:   display.NewRotator(now),
			Logger:    datalog.New(cfg.Storage, cfg.LogFile, cfg.KV, now),
			Timestamp: ts,
			Mono:      now,
		},
	}
	d.state.Logger.OnRecord = d.onRecord
	return d, nil
}

// ID returns the device identifier.
func (d *Device) ID() string {
	return d.id
}

// State returns the device state for inspection.
func (d *Device) State() *State {
	return &d.state
}

// SetNetwork records the current network association.
func (d *Device) SetNetwork(n *status.NetworkInfo) {
	d.state.Network = n
}

// Pass runs one scheduler pass at monotonic time now: it serves at most
// one request, polls the sensors, rotates the display, reads the clock
// once, renders the page and logs a row when due.
func (d *Device) Pass(now time.Time, reqs RequestSource) {
	if reqs != nil {
		reqs.ServeOne()
	}

	iv := d.state.Intervals.Current()
	d.pollPM(now, iv.Get(interval.ReadPM))
	d.pollGas(now, iv.Get(interval.ReadGas))

	if d.state.Rotator.Tick(now, func(p display.Page) time.Duration {
		return iv.Get(pageInterval[p])
	}) {
		d.cfg.Metrics.Page(int(d.state.Rotator.Page()))
	}

	ts := d.readTimestamp(now)

	if err := display.Render(d.cfg.Display, d.state.Rotator.Page(), ts, d.view()); err != nil {
		log.Printf("display: %v", err)
	}

	pm, _ := d.state.PM.Latest()
	gas, _ := d.state.Gas.Latest()
	wrote, err := d.state.Logger.Tick(now, ts, iv.Get(interval.Log), pm, gas)
	if wrote || err != nil {
		d.cfg.Metrics.LogAppend(err)
	}
}

var pageInterval = map[display.Page]interval.Name{
	display.PageMass:    interval.PageMass,
	display.PageCount:   interval.PageCount,
	display.PageGas:     interval.PageGas,
	display.PageNetwork: interval.PageNetwork,
}

func (d *Device) pollPM(now time.Time, every time.Duration) {
	updated, err := d.state.PM.Tick(now, every)
	if updated || err != nil {
		d.cfg.Metrics.SensorRead(d.state.PM.Name(), err)
	}
	if updated {
		s, _ := d.state.PM.Latest()
		d.cfg.Metrics.Reading("mc2_5", s.MC2p5)
		d.cfg.Metrics.Reading("mc10_0", s.MC10p0)
	}
}

func (d *Device) pollGas(now time.Time, every time.Duration) {
	updated, err := d.state.Gas.Tick(now, every)
	if updated || err != nil {
		d.cfg.Metrics.SensorRead(d.state.Gas.Name(), err)
	}
	if updated {
		s, _ := d.state.Gas.Latest()
		d.cfg.Metrics.Reading("co2", s.CO2)
		d.cfg.Metrics.Reading("temperature", s.Temperature)
		d.cfg.Metrics.Reading("humidity", s.Humidity)
	}
}

// readTimestamp reads the clock. If the clock cannot be read the last
// timestamp is advanced by the monotonic time elapsed since it was taken.
func (d *Device) readTimestamp(now time.Time) time.Time {
	ts, err := d.cfg.Clock.Now()
	if err != nil {
		log.Printf("clock: %v", fault.New(fault.TransientClock, "read", err))
		ts = d.state.Timestamp.Add(now.Sub(d.state.Mono))
	}
	d.state.Timestamp = ts
	d.state.Mono = now
	return ts
}

func (d *Device) view() display.View {
	pm, havePM := d.state.PM.Latest()
	gas, haveGas := d.state.Gas.Latest()
	return display.View{
		PM:      pm,
		HavePM:  havePM,
		Gas:     gas,
		HaveGas: haveGas,
		Network: d.state.Network,
	}
}

func (d *Device) onRecord(rec datalog.Record) {
	if d.cfg.OnRecord != nil {
		d.cfg.OnRecord(rec)
	}
}

// Status returns a snapshot of the device as of the last pass.
func (d *Device) Status() status.Snapshot {
	pm, havePM := d.state.PM.Latest()
	gas, haveGas := d.state.Gas.Latest()
	snap := status.Snapshot{
		PM:        pm,
		HavePM:    havePM,
		Gas:       gas,
		HaveGas:   haveGas,
		Page:      d.state.Rotator.Page().String(),
		Intervals: d.state.Intervals.Current(),
		Timestamp: d.state.Timestamp,
		Uptime:    d.state.Mono.Sub(d.start),
		Counts: status.Counts{
			PMReads:     d.state.PM.Reads,
			PMFailures:  d.state.PM.Failures,
			GasReads:    d.state.Gas.Reads,
			GasFailures: d.state.Gas.Failures,
			LogRows:     d.state.Logger.Rows,
			LogFailures: d.state.Logger.Failures,
		},
		Config: d.cfg.Info,
	}
	if d.state.Network != nil {
		n := *d.state.Network
		snap.Network = &n
	}
	if d.cfg.MQTTConnected != nil {
		snap.MQTTConnected = d.cfg.MQTTConnected()
	}
	return snap
}
