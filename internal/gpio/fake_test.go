package gpio

import (
	"errors"
	"testing"
)

func TestFakeInputActive(t *testing.T) {
	f := NewFakeInput(true, false, true)

	for i, want := range []bool{true, false, true, true} {
		got, err := f.Active()
		if err != nil {
			t.Fatalf("value %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("value %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestFakeInputNoValues(t *testing.T) {
	f := NewFakeInput()

	_, err := f.Active()
	if err == nil {
		t.Error("expected error with no values")
	}
}

func TestFakeInputError(t *testing.T) {
	f := NewFakeInput(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Active()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeInputCloseAndReset(t *testing.T) {
	f := NewFakeInput(true, false)

	f.Active()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed {
		t.Error("should not be closed after Reset()")
	}
	v, _ := f.Active()
	if v != true {
		t.Errorf("after reset: expected true, got %v", v)
	}
}

func TestFakeOutputRecordsSets(t *testing.T) {
	f := &FakeOutput{}
	f.Set(true)
	f.Set(false)

	if f.On {
		t.Error("expected off after last Set(false)")
	}
	if len(f.Sets) != 2 || !f.Sets[0] || f.Sets[1] {
		t.Errorf("Sets: got %v, want [true false]", f.Sets)
	}

	f.SetError = errors.New("busy")
	if err := f.Set(true); err == nil {
		t.Error("expected SetError")
	}
}
