package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/airmon/internal/datalog"
	"github.com/sweeney/airmon/internal/device"
	"github.com/sweeney/airmon/internal/display"
	"github.com/sweeney/airmon/internal/gpio"
	"github.com/sweeney/airmon/internal/interval"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/metrics"
	"github.com/sweeney/airmon/internal/mqtt"
	"github.com/sweeney/airmon/internal/rtc"
	"github.com/sweeney/airmon/internal/sensor"
	"github.com/sweeney/airmon/internal/status"
	"github.com/sweeney/airmon/internal/web"
	"github.com/sweeney/airmon/internal/wifi"
)

var (
	t0   = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	wall = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
)

// fakeClock returns a function that yields start+step, start+2*step, ...
// on successive calls. Only called from runLoop's goroutine.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * step)
	}
}

func newTestDevice(t *testing.T, pub mqtt.Publisher) (*device.Device, *datalog.MemStorage, *display.Fake) {
	t.Helper()
	storage := datalog.NewMemStorage()
	disp := display.NewFake()
	dev, err := device.New(device.Config{
		Clock:    &rtc.Fake{T: wall},
		Display:  disp,
		Storage:  storage,
		KV:       kv.NewMemStore(),
		PM:       sensor.NewFakePM(sensor.PMSample{MC2p5: 12}),
		Gas:      sensor.NewFakeGas(sensor.GasSample{CO2: 700, Temperature: 22, Humidity: 45}),
		OnRecord: recordPublisher(pub, nil),
		Info:     status.Config{DeviceID: "test-device"},
	}, t0)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return dev, storage, disp
}

// runTicks drives runLoop for nTicks and then delivers signal.
func runTicks(t *testing.T, dev *device.Device, reqs device.RequestSource, pub mqtt.Publisher, clock func() time.Time, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(dev, reqs, pub, metrics.New(), clock, tick, nil, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal
	return <-errCh
}

func TestRunLoopLogsAndPublishesRow(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	dev, storage, disp := newTestDevice(t, pub)

	err := runTicks(t, dev, nil, pub, fakeClock(t0, time.Second), 20, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.Records) != 1 {
		t.Fatalf("published records: got %d, want 1", len(pub.Records))
	}
	if got := pub.Records[0].Gas.CO2; got != 700 {
		t.Errorf("published CO2: got %v, want 700", got)
	}
	lines := strings.Split(strings.TrimSpace(storage.Contents(datalog.DefaultFile)), "\n")
	if len(lines) != 2 || lines[0] != datalog.Header {
		t.Errorf("log file: got %q", lines)
	}
	if got := disp.Last()[0]; got != wall.Format(display.TimestampLayout) {
		t.Errorf("display header: got %q", got)
	}
}

func TestRunLoopShutdownEvent(t *testing.T) {
	for _, tt := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGINT, "SIGINT"},
	} {
		pub := mqtt.NewFakePublisher()
		dev, _, _ := newTestDevice(t, pub)

		if err := runTicks(t, dev, nil, pub, fakeClock(t0, time.Second), 2, tt.sig); err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}
		if len(pub.SystemEvents) != 1 {
			t.Fatalf("system events: got %d, want 1", len(pub.SystemEvents))
		}
		ev := pub.SystemEvents[0]
		if ev.Event != "SHUTDOWN" || ev.Reason != tt.want || !ev.Retained {
			t.Errorf("event: got %s/%s retained=%v, want SHUTDOWN/%s retained", ev.Event, ev.Reason, ev.Retained, tt.want)
		}
		if !bytes.Contains(ev.RawPayload, []byte("test-device")) {
			t.Errorf("payload missing device id: %s", ev.RawPayload)
		}
	}
}

func TestRunLoopWithoutPublisher(t *testing.T) {
	dev, storage, _ := newTestDevice(t, nil)
	if err := runTicks(t, dev, nil, nil, fakeClock(t0, time.Second), 20, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if storage.Contents(datalog.DefaultFile) == "" {
		t.Error("expected a log row without MQTT")
	}
}

func TestRunLoopPublishErrorContinues(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker unavailable")
	dev, storage, _ := newTestDevice(t, pub)

	if err := runTicks(t, dev, nil, pub, fakeClock(t0, time.Second), 40, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(storage.Contents(datalog.DefaultFile)), "\n")
	if len(lines) != 3 {
		t.Errorf("log lines: got %d, want header and 2 rows", len(lines))
	}
	if len(pub.SystemEvents) != 1 {
		t.Error("expected SHUTDOWN despite publish errors")
	}
}

func TestRunLoopServesQueuedRequest(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	q := web.NewQueue(4)

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(dev, q, nil, nil, fakeClock(t0, time.Second), tick, nil, sig)
	}()

	done := make(chan error, 1)
	var got interval.Set
	go func() {
		done <- q.Do(context.Background(), func() { got = dev.Intervals() })
	}()
	for q.Len() == 0 {
		time.Sleep(time.Millisecond)
	}
	tick <- time.Time{}
	if err := <-done; err != nil {
		t.Fatalf("Do: %v", err)
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if got != interval.Defaults() {
		t.Errorf("intervals: got %v", got)
	}
}

func TestRunLoopAppliesNetwork(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	netCh := make(chan *status.NetworkInfo)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(dev, nil, nil, nil, fakeClock(t0, time.Second), nil, netCh, sig)
	}()

	netCh <- &status.NetworkInfo{Status: "connected", SSID: "home", IP: "10.0.0.2"}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	n := dev.Status().Network
	if n == nil || n.SSID != "home" || n.IP != "10.0.0.2" {
		t.Errorf("network: got %+v", n)
	}
}

func TestHalt(t *testing.T) {
	led := &gpio.FakeOutput{}
	disp := display.NewFake()
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM

	cause := errors.New("probe sps30: no ack")
	err := halt(led, disp, cause, sig)
	if !errors.Is(err, cause) {
		t.Errorf("halt: got %v, want %v", err, cause)
	}
	if !led.On {
		t.Error("LED should be on after halt")
	}
	frame := disp.Last()
	if frame == nil || frame[0] != "ERROR" || !strings.HasPrefix(frame[1], "probe sps30") {
		t.Errorf("display frame: got %q", frame)
	}
}

func TestHaltWithoutLED(t *testing.T) {
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGINT
	cause := errors.New("i2c: no such device")
	if err := halt(nil, nil, cause, sig); !errors.Is(err, cause) {
		t.Errorf("halt: got %v, want %v", err, cause)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("SIGTERM: got %q", got)
	}
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT: got %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP: got %q", got)
	}
}

func TestClientID(t *testing.T) {
	if got := clientID("0f8fad5b-d9cb-469f-a165-70867728950e"); got != "airmon-0f8fad5b" {
		t.Errorf("clientID: got %q", got)
	}
	if got := clientID("abc"); got != "airmon-abc" {
		t.Errorf("clientID short: got %q", got)
	}
}

func TestReadOnce(t *testing.T) {
	pm := sensor.NewFakePM(sensor.PMSample{MC2p5: 5})
	gas := sensor.NewFakeGas(sensor.GasSample{CO2: 420})
	gas.Ready = false
	sleeps := 0
	sleep := func(time.Duration) {
		sleeps++
		gas.Ready = true
	}
	clock := func() (time.Time, error) { return wall, nil }

	rec, err := readOnce(pm, gas, clock, time.Second, sleep)
	if err != nil {
		t.Fatalf("readOnce: %v", err)
	}
	if rec.PM.MC2p5 != 5 || rec.Gas.CO2 != 420 || !rec.Time.Equal(wall) {
		t.Errorf("record: got %+v", rec)
	}
	if sleeps != 1 {
		t.Errorf("sleeps: got %d, want 1", sleeps)
	}
	if pm.ReadCalls != 1 {
		t.Errorf("PM reads: got %d, want 1", pm.ReadCalls)
	}
}

func TestReadOnceTimeout(t *testing.T) {
	pm := sensor.NewFakePM(sensor.PMSample{})
	pm.Ready = false
	gas := sensor.NewFakeGas(sensor.GasSample{})
	clock := func() (time.Time, error) { return wall, nil }

	_, err := readOnce(pm, gas, clock, 300*time.Millisecond, func(time.Duration) {})
	if !errors.Is(err, errReadTimeout) {
		t.Errorf("got %v, want timeout", err)
	}
	if gas.ReadCalls != 1 {
		t.Errorf("gas reads: got %d, want 1", gas.ReadCalls)
	}
}

func TestReadOnceSensorError(t *testing.T) {
	pm := sensor.NewFakePM(sensor.PMSample{})
	pm.ReadError = errors.New("crc mismatch")
	gas := sensor.NewFakeGas(sensor.GasSample{})
	clock := func() (time.Time, error) { return wall, nil }

	_, err := readOnce(pm, gas, clock, time.Second, func(time.Duration) {})
	if err == nil || !strings.Contains(err.Error(), "fake-pm") {
		t.Errorf("got %v, want error naming the sensor", err)
	}
}

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	rec := datalog.Record{Time: wall, Gas: sensor.GasSample{CO2: 500}}
	if err := printRecord(&buf, rec); err != nil {
		t.Fatal(err)
	}
	want := datalog.Header + "\n" + rec.CSV() + "\n"
	if buf.String() != want {
		t.Errorf("output: got %q, want %q", buf.String(), want)
	}
}

func TestPrintIntervals(t *testing.T) {
	var buf bytes.Buffer
	printIntervals(&buf, interval.Defaults())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(interval.Fields) {
		t.Fatalf("lines: got %d, want %d", len(lines), len(interval.Fields))
	}
	if !strings.HasPrefix(lines[0], "page_mass") || !strings.Contains(lines[0], " 3000 ms") {
		t.Errorf("first line: got %q", lines[0])
	}
	if !strings.Contains(lines[len(lines)-1], "20000 ms") {
		t.Errorf("log line: got %q", lines[len(lines)-1])
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := buf.String(); got != "airmon dev\n" {
		t.Errorf("version: got %q", got)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--http", "off", "--simulate"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, flags{http: "off", simulate: true})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("HTTPAddr: got %q, want disabled", cfg.HTTPAddr)
	}
	if !cfg.Simulate {
		t.Error("Simulate: got false")
	}
}

func TestLoadConfigKeepsFileAddress(t *testing.T) {
	cmd := newRootCmd()
	cfg, err := loadConfig(cmd, flags{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":80" {
		t.Errorf("HTTPAddr: got %q, want :80", cfg.HTTPAddr)
	}
}

func TestWatchNetwork(t *testing.T) {
	m := &wifi.Fake{}
	store := kv.NewMemStore()
	store.Put(kv.String(wifi.KeySSID, "home"), kv.String(wifi.KeyPassword, "secret"))
	console := wifi.NewConsole(strings.NewReader(""), io.Discard)
	out := make(chan *status.NetworkInfo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchNetwork(ctx, m, store, console, nil, out)
		close(done)
	}()

	select {
	case n := <-out:
		if n.SSID != "home" || n.Status != "connected" {
			t.Errorf("network: got %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no network update")
	}
	cancel()
	<-done
}

// syncBuffer is a terminal shared by the console and the display.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSetupPromptNotOverdrawn(t *testing.T) {
	var screen syncBuffer
	text := display.NewText(&screen, true)
	clock := &rtc.Fake{T: wall}
	dev, err := device.New(device.Config{
		Clock:   clock,
		Display: text,
		Storage: datalog.NewMemStorage(),
		KV:      kv.NewMemStore(),
		PM:      sensor.NewFakePM(sensor.PMSample{MC2p5: 12}),
		Gas:     sensor.NewFakeGas(sensor.GasSample{CO2: 700}),
	}, t0)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	pass := func(d time.Duration) {
		clock.T = wall.Add(d)
		dev.Pass(t0.Add(d), nil)
	}
	pass(0)
	if !strings.Contains(screen.String(), wall.Format(display.TimestampLayout)) {
		t.Fatal("no frame before setup")
	}

	in, answer := io.Pipe()
	defer answer.Close()
	console := wifi.NewConsole(in, &screen)
	m := &wifi.Fake{Networks: []wifi.Network{{SSID: "attic", Signal: 70}}}
	out := make(chan *status.NetworkInfo)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchNetwork(ctx, m, kv.NewMemStore(), console, text, out)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	const prompt = "Select network [1-1]: "
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(screen.String(), prompt) {
		if time.Now().After(deadline) {
			t.Fatalf("no prompt: %q", screen.String())
		}
		time.Sleep(time.Millisecond)
	}
	for s := 1; s <= 5; s++ {
		pass(time.Duration(s) * time.Second)
	}
	got := screen.String()
	if !strings.HasSuffix(got, prompt) {
		t.Errorf("output after the prompt: %q", got[strings.Index(got, prompt):])
	}
	if !strings.Contains(got, " 1) attic (70%)") {
		t.Errorf("network list missing: %q", got)
	}

	go answer.Write([]byte("1\n"))
	select {
	case n := <-out:
		if n.SSID != "attic" {
			t.Errorf("network: got %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no network update")
	}

	pass(6 * time.Second)
	got = screen.String()
	i := strings.Index(got, "Connected to attic")
	if i < 0 {
		t.Fatalf("no confirmation: %q", got)
	}
	if !strings.Contains(got[i:], "\x1b[H\x1b[2J"+wall.Add(6*time.Second).Format(display.TimestampLayout)) {
		t.Errorf("display not redrawn after setup: %q", got[i:])
	}
}
