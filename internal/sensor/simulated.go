package sensor

import (
	"errors"
	"math"
	"math/rand"
)

// Simulated drivers produce plausible readings without hardware.
// They are used when the daemon runs with --simulate.

// SimulatedPM is a particulate sensor whose readings drift randomly.
type SimulatedPM struct {
	rnd  *rand.Rand
	mc25 float64
}

// NewSimulatedPM returns a SimulatedPM seeded with seed.
func NewSimulatedPM(seed int64) *SimulatedPM {
	return &SimulatedPM{rnd: rand.New(rand.NewSource(seed)), mc25: 8}
}

func (s *SimulatedPM) Name() string             { return "sim-pm" }
func (s *SimulatedPM) Probe() error             { return nil }
func (s *SimulatedPM) StartMeasurement() error  { return nil }
func (s *SimulatedPM) DataReady() (bool, error) { return true, nil }

func (s *SimulatedPM) ReadPM() (PMSample, error) {
	s.mc25 = math.Max(0.5, s.mc25+s.rnd.NormFloat64())
	mc := s.mc25
	return PMSample{
		MC1p0:       mc * 0.8,
		MC2p5:       mc,
		MC4p0:       mc * 1.1,
		MC10p0:      mc * 1.15,
		NC0p5:       mc * 5.5,
		NC1p0:       mc * 6.4,
		NC2p5:       mc * 6.5,
		NC4p0:       mc * 6.52,
		NC10p0:      mc * 6.53,
		TypicalSize: 0.45 + s.rnd.Float64()*0.1,
	}, nil
}

// SimulatedGas is a gas sensor whose readings drift randomly.
type SimulatedGas struct {
	rnd    *rand.Rand
	co2    float64
	frc    uint16
	offset float64
}

// NewSimulatedGas returns a SimulatedGas seeded with seed.
func NewSimulatedGas(seed int64) *SimulatedGas {
	return &SimulatedGas{rnd: rand.New(rand.NewSource(seed)), co2: 600, frc: 400}
}

func (s *SimulatedGas) Name() string             { return "sim-gas" }
func (s *SimulatedGas) Probe() error             { return nil }
func (s *SimulatedGas) StartMeasurement() error  { return nil }
func (s *SimulatedGas) DataReady() (bool, error) { return true, nil }

func (s *SimulatedGas) ReadGas() (GasSample, error) {
	s.co2 = math.Max(400, s.co2+s.rnd.NormFloat64()*10)
	return GasSample{
		CO2:         s.co2,
		Temperature: 21 + s.rnd.NormFloat64()*0.2 - s.offset,
		Humidity:    45 + s.rnd.NormFloat64(),
	}, nil
}

func (s *SimulatedGas) ForceRecalibration(ppm uint16) error {
	if ppm < 400 || ppm > 2000 {
		return errors.New("reference outside 400-2000 ppm")
	}
	s.frc = ppm
	s.co2 = float64(ppm)
	return nil
}

func (s *SimulatedGas) Recalibration() (uint16, error) { return s.frc, nil }

func (s *SimulatedGas) SetTemperatureOffset(c float64) error {
	if c < 0 {
		return errors.New("offset must not be negative")
	}
	s.offset = c
	return nil
}

func (s *SimulatedGas) TemperatureOffset() (float64, error) { return s.offset, nil }
