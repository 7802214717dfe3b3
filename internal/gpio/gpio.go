// Package gpio drives the pump relay output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer sets the state of a single output line.
type Writer interface {
	// Set drives the line: true energises the relay (pump on).
	Set(on bool) error

	// Close de-energises the line and releases GPIO resources.
	Close() error
}

// DefaultChip is the gpiochip the relay line is requested from.
const DefaultChip = "gpiochip0"

// NoPin disables the relay output.
const NoPin = -1
