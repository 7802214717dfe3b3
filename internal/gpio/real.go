//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives a relay from an actual GPIO line.
type RealWriter struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	on   bool
}

// NewRealWriter requests offset on chip as an output, initially low (pump off).
func NewRealWriter(chip string, offset int) (*RealWriter, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := c.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("water-system"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request pump pin %d: %w", offset, err)
	}

	return &RealWriter{chip: c, line: line}, nil
}

// Set drives the relay line. Unchanged states are not rewritten.
func (w *RealWriter) Set(on bool) error {
	if on == w.on {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := w.line.SetValue(v); err != nil {
		return fmt.Errorf("set pump pin: %w", err)
	}
	w.on = on
	return nil
}

// Close drives the line low, then returns it to an input with pull-down
// (the Pi boot default) so the relay stays released after exit.
func (w *RealWriter) Close() error {
	var errs []error

	if w.line != nil {
		if err := w.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release pump pin: %w", err))
		}
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pump pin: %w", err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pump pin: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
