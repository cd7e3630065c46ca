// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Input reads a single input line.
type Input interface {
	// Active reports whether the line is at its active level.
	Active() (bool, error)

	// Close releases the line.
	Close() error
}

// Output drives a single output line, such as the status LED.
type Output interface {
	Set(on bool) error
	Close() error
}

// Default chip and pins (BCM numbering). A negative pin disables the line.
const (
	DefaultChip     = "gpiochip0"
	DefaultReadyPin = -1
	DefaultLEDPin   = -1
)
