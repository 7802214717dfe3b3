package logic

import "fmt"

// Drain is a fixed-geometry orifice between Tank A and Tank B.
type Drain struct {
	diameter Length
}

// NewDrain creates a drain with the given diameter.
func NewDrain(diameter Length) (Drain, error) {
	if !validPositive(float64(diameter)) {
		return Drain{}, fmt.Errorf("drain diameter %v: %w", diameter, ErrInvalidGeometry)
	}
	return Drain{diameter: diameter}, nil
}

// Diameter returns the orifice diameter.
func (d Drain) Diameter() Length {
	return d.diameter
}

// FlowRate returns the flow through the drain for a water column pressure.
// The relation is linear in pressure. Negative pressure yields no flow.
func (d Drain) FlowRate(pressure Length) Flow {
	if pressure <= 0 {
		return 0
	}
	return Flow(float64(pressure) * circleArea(d.diameter))
}
