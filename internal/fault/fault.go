// Package fault classifies errors raised by the device's collaborators.
//
// Only FatalInit stops the device; every other kind is logged by the
// scheduler and retried on the next due cycle.
package fault

import (
	"errors"
	"fmt"
)

// Kind is the class of a failure.
type Kind int

const (
	Unknown Kind = iota
	FatalInit
	TransientSensor
	TransientStorage
	ConfigInput
	NetworkTransient
	TransientClock
)

func (k Kind) String() string {
	switch k {
	case FatalInit:
		return "fatal-init"
	case TransientSensor:
		return "transient-sensor"
	case TransientStorage:
		return "transient-storage"
	case ConfigInput:
		return "config-input"
	case NetworkTransient:
		return "network-transient"
	case TransientClock:
		return "transient-clock"
	}
	return "unknown"
}

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind. It returns nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost fault.Error in err's chain,
// or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsFatal reports whether err must stop the device.
func IsFatal(err error) bool {
	return KindOf(err) == FatalInit
}
