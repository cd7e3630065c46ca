package datalog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/rtc"
	"github.com/sweeney/airmon/internal/sensor"
)

var (
	t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
)

func samples() (sensor.PMSample, sensor.GasSample) {
	pm := sensor.PMSample{
		MC1p0: 1, MC2p5: 2.5, MC4p0: 4, MC10p0: 10,
		NC0p5: 0.5, NC1p0: 1, NC2p5: 2.5, NC4p0: 4, NC10p0: 10,
		TypicalSize: 0.456,
	}
	gas := sensor.GasSample{CO2: 612.3, Temperature: 21.5, Humidity: 40.1}
	return pm, gas
}

func TestRecordCSV(t *testing.T) {
	pm, gas := samples()
	got := Record{Time: ts, PM: pm, Gas: gas}.CSV()
	want := "04-03-2026,05:06:07,1.00,2.50,4.00,10.00,0.50,1.00,2.50,4.00,10.00,0.46,612.30,21.50,40.10"
	if got != want {
		t.Errorf("CSV:\n got %s\nwant %s", got, want)
	}
	if n := strings.Count(got, ","); n != strings.Count(Header, ",") {
		t.Errorf("column count: got %d commas, header has %d", n, strings.Count(Header, ","))
	}
}

func TestRecordCSVZeroSamples(t *testing.T) {
	got := Record{Time: ts}.CSV()
	if !strings.HasSuffix(got, ",0.00,0.00,0.00") {
		t.Errorf("CSV: got %s, want trailing zero fields", got)
	}
}

func TestTickNotDue(t *testing.T) {
	mem := NewMemStorage()
	l := New(mem, DefaultFile, kv.NewMemStore(), t0)
	pm, gas := samples()

	wrote, err := l.Tick(t0.Add(19*time.Second), ts, 20*time.Second, pm, gas)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if wrote {
		t.Error("wrote before interval elapsed")
	}
	if mem.Appends != 0 {
		t.Errorf("Appends: got %d, want 0", mem.Appends)
	}
}

func TestTickWritesHeaderOnce(t *testing.T) {
	mem := NewMemStorage()
	store := kv.NewMemStore()
	l := New(mem, DefaultFile, store, t0)
	pm, gas := samples()

	for i := 1; i <= 3; i++ {
		now := t0.Add(time.Duration(i) * 20 * time.Second)
		wrote, err := l.Tick(now, ts.Add(time.Duration(i)*time.Second), 20*time.Second, pm, gas)
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		if !wrote {
			t.Fatalf("Tick %d: expected a row", i)
		}
	}

	lines := strings.Split(strings.TrimSuffix(mem.Contents(DefaultFile), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines: got %d, want 4", len(lines))
	}
	if lines[0] != Header {
		t.Errorf("header: got %q", lines[0])
	}
	for _, line := range lines[1:] {
		if line == Header {
			t.Error("header repeated")
		}
	}
	if l.Rows != 3 {
		t.Errorf("Rows: got %d, want 3", l.Rows)
	}

	got, ok, err := rtc.Checkpoint(store)
	if err != nil || !ok {
		t.Fatalf("Checkpoint: ok=%v err=%v", ok, err)
	}
	if want := ts.Add(3 * time.Second); !got.Equal(want) {
		t.Errorf("checkpoint: got %v, want %v", got, want)
	}
}

func TestTickAppendsToExistingFile(t *testing.T) {
	mem := NewMemStorage()
	mem.AppendLine(DefaultFile, Header)
	mem.AppendLine(DefaultFile, "old,row")
	l := New(mem, DefaultFile, kv.NewMemStore(), t0)
	pm, gas := samples()

	if _, err := l.Tick(t0.Add(20*time.Second), ts, 20*time.Second, pm, gas); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if n := strings.Count(mem.Contents(DefaultFile), Header); n != 1 {
		t.Errorf("header count: got %d, want 1", n)
	}
}

func TestTickAppendFailure(t *testing.T) {
	mem := NewMemStorage()
	mem.AppendError = errors.New("card removed")
	store := kv.NewMemStore()
	l := New(mem, DefaultFile, store, t0)
	pm, gas := samples()

	wrote, err := l.Tick(t0.Add(20*time.Second), ts, 20*time.Second, pm, gas)
	if wrote {
		t.Error("wrote despite failure")
	}
	if fault.KindOf(err) != fault.TransientStorage {
		t.Errorf("kind: got %v, want %v", fault.KindOf(err), fault.TransientStorage)
	}
	if l.Failures != 1 {
		t.Errorf("Failures: got %d, want 1", l.Failures)
	}
	if _, ok, _ := rtc.Checkpoint(store); ok {
		t.Error("checkpoint saved after failed append")
	}

	// Not retried until the next cycle.
	mem.AppendError = nil
	wrote, _ = l.Tick(t0.Add(21*time.Second), ts, 20*time.Second, pm, gas)
	if wrote {
		t.Error("retried before next cycle")
	}
	wrote, err = l.Tick(t0.Add(40*time.Second), ts, 20*time.Second, pm, gas)
	if err != nil || !wrote {
		t.Errorf("next cycle: wrote=%v err=%v", wrote, err)
	}
}

func TestTickCheckpointFailureStillCountsRow(t *testing.T) {
	mem := NewMemStorage()
	store := kv.NewMemStore()
	store.PutError = errors.New("flash worn")
	l := New(mem, DefaultFile, store, t0)
	pm, gas := samples()

	wrote, err := l.Tick(t0.Add(20*time.Second), ts, 20*time.Second, pm, gas)
	if err != nil || !wrote {
		t.Errorf("Tick: wrote=%v err=%v", wrote, err)
	}
	if l.Rows != 1 {
		t.Errorf("Rows: got %d, want 1", l.Rows)
	}
}

func TestTickOnRecord(t *testing.T) {
	l := New(NewMemStorage(), DefaultFile, kv.NewMemStore(), t0)
	var got []Record
	l.OnRecord = func(r Record) { got = append(got, r) }
	pm, gas := samples()

	l.Tick(t0.Add(20*time.Second), ts, 20*time.Second, pm, gas)
	if len(got) != 1 {
		t.Fatalf("OnRecord calls: got %d, want 1", len(got))
	}
	if got[0].Gas.CO2 != gas.CO2 || !got[0].Time.Equal(ts) {
		t.Errorf("record: got %+v", got[0])
	}
}

func TestMemStorageOpenForRead(t *testing.T) {
	mem := NewMemStorage()
	if _, _, err := mem.OpenForRead(DefaultFile); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: got %v, want ErrNotFound", err)
	}
	mem.AppendLine(DefaultFile, "abc")
	rc, size, err := mem.OpenForRead(DefaultFile)
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	defer rc.Close()
	if size != 4 {
		t.Errorf("size: got %d, want 4", size)
	}
	mem.AppendLine(DefaultFile, "def")
	data, _ := io.ReadAll(rc)
	if string(data) != "abc\n" {
		t.Errorf("contents: got %q, want snapshot %q", data, "abc\n")
	}
}

func TestDirStorage(t *testing.T) {
	dir := Dir{Root: t.TempDir()}
	if err := dir.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}

	size, err := dir.Size(DefaultFile)
	if err != nil || size != 0 {
		t.Errorf("Size of missing file: got %d, %v", size, err)
	}
	if _, _, err := dir.OpenForRead(DefaultFile); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenForRead missing: got %v, want ErrNotFound", err)
	}

	l := New(dir, DefaultFile, kv.NewMemStore(), t0)
	pm, gas := samples()
	if _, err := l.Tick(t0.Add(20*time.Second), ts, 20*time.Second, pm, gas); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir.Root, DefaultFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := Header + "\n" + Record{Time: ts, PM: pm, Gas: gas}.CSV() + "\n"
	if string(raw) != want {
		t.Errorf("file:\n got %q\nwant %q", raw, want)
	}

	rc, size, err := dir.OpenForRead(DefaultFile)
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	defer rc.Close()
	if size != int64(len(want)) {
		t.Errorf("size: got %d, want %d", size, len(want))
	}
}

func TestDirStoragePathStaysInRoot(t *testing.T) {
	dir := Dir{Root: t.TempDir()}
	if err := dir.AppendLine("../escape.csv", "x"); err != nil {
		t.Fatalf("AppendLine: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir.Root, "escape.csv")); err != nil {
		t.Errorf("expected file inside root: %v", err)
	}
}

func TestDirCheckMissing(t *testing.T) {
	dir := Dir{Root: filepath.Join(t.TempDir(), "nope")}
	if err := dir.Check(); err == nil {
		t.Error("expected error for missing root")
	}
}
