package sensor

import "errors"

// FakePM is a test double for a particulate sensor.
type FakePM struct {
	// Samples are returned by successive ReadPM calls; the last one
	// repeats once exhausted.
	Samples []PMSample
	index   int

	// Ready is returned by DataReady.
	Ready bool

	ProbeError error
	StartError error
	ReadyError error
	ReadError  error

	Started    bool
	ReadyCalls int
	ReadCalls  int
}

// NewFakePM returns a ready FakePM returning the given samples.
func NewFakePM(samples ...PMSample) *FakePM {
	return &FakePM{Samples: samples, Ready: true}
}

func (f *FakePM) Name() string { return "fake-pm" }

func (f *FakePM) Probe() error { return f.ProbeError }

func (f *FakePM) StartMeasurement() error {
	if f.StartError != nil {
		return f.StartError
	}
	f.Started = true
	return nil
}

func (f *FakePM) DataReady() (bool, error) {
	f.ReadyCalls++
	if f.ReadyError != nil {
		return false, f.ReadyError
	}
	return f.Ready, nil
}

func (f *FakePM) ReadPM() (PMSample, error) {
	f.ReadCalls++
	if f.ReadError != nil {
		return PMSample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return PMSample{}, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// FakeGas is a test double for a gas sensor.
type FakeGas struct {
	Samples []GasSample
	index   int

	Ready bool

	ProbeError error
	StartError error
	ReadyError error
	ReadError  error

	// CalibrationError, if set, is returned by the calibration and
	// offset setters and getters.
	CalibrationError error

	FRC    uint16
	Offset float64

	Started    bool
	ReadyCalls int
	ReadCalls  int
}

// NewFakeGas returns a ready FakeGas returning the given samples.
func NewFakeGas(samples ...GasSample) *FakeGas {
	return &FakeGas{Samples: samples, Ready: true, FRC: 400}
}

func (f *FakeGas) Name() string { return "fake-gas" }

func (f *FakeGas) Probe() error { return f.ProbeError }

func (f *FakeGas) StartMeasurement() error {
	if f.StartError != nil {
		return f.StartError
	}
	f.Started = true
	return nil
}

func (f *FakeGas) DataReady() (bool, error) {
	f.ReadyCalls++
	if f.ReadyError != nil {
		return false, f.ReadyError
	}
	return f.Ready, nil
}

func (f *FakeGas) ReadGas() (GasSample, error) {
	f.ReadCalls++
	if f.ReadError != nil {
		return GasSample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return GasSample{}, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

func (f *FakeGas) ForceRecalibration(ppm uint16) error {
	if f.CalibrationError != nil {
		return f.CalibrationError
	}
	f.FRC = ppm
	return nil
}

func (f *FakeGas) Recalibration() (uint16, error) {
	if f.CalibrationError != nil {
		return 0, f.CalibrationError
	}
	return f.FRC, nil
}

func (f *FakeGas) SetTemperatureOffset(c float64) error {
	if f.CalibrationError != nil {
		return f.CalibrationError
	}
	f.Offset = c
	return nil
}

func (f *FakeGas) TemperatureOffset() (float64, error) {
	if f.CalibrationError != nil {
		return 0, f.CalibrationError
	}
	return f.Offset, nil
}
