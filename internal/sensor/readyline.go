package sensor

import "fmt"

// ReadyLine is a digital input that is active while a sensor has data.
type ReadyLine interface {
	Active() (bool, error)
}

type readyLineGas struct {
	GasDriver
	line ReadyLine
}

// WithReadyLine returns a GasDriver whose DataReady is answered by the
// sensor's data-ready pin instead of a bus transaction.
func WithReadyLine(d GasDriver, line ReadyLine) GasDriver {
	return readyLineGas{GasDriver: d, line: line}
}

func (r readyLineGas) DataReady() (bool, error) {
	ok, err := r.line.Active()
	if err != nil {
		return false, fmt.Errorf("ready line: %w", err)
	}
	return ok, nil
}
