package gpio

import "errors"

// FakeInput is a test double that returns scripted line values.
type FakeInput struct {
	// Values contains scripted values to return.
	// Each call to Active() consumes the next value.
	Values []bool

	// index tracks current position in Values
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Active()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given values.
func NewFakeInput(values ...bool) *FakeInput {
	return &FakeInput{Values: values}
}

// Active returns the next scripted value.
// If values are exhausted, returns the last value repeatedly.
func (f *FakeInput) Active() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Values) == 0 {
		return false, errors.New("no values configured")
	}

	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}

	return v, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the input to the beginning of values.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutput records the values it is set to.
type FakeOutput struct {
	On     bool
	Sets   []bool
	Closed bool

	SetError error
}

// Set records the value.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.Sets = append(f.Sets, on)
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
