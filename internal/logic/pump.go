package logic

import (
	"fmt"
	"time"
)

// DefaultMinRunTime is how long the pump must stay on before an off command
// takes effect.
const DefaultMinRunTime = 2 * time.Second

// Pump is an on/off fluid source with a fixed flow rate and a minimum-on-time
// lockout.
type Pump struct {
	flowRate       Flow
	minRunTime     time.Duration
	on             bool
	lastActivation time.Time
	now            func() time.Time
}

// NewPump creates a pump that is initially off. The now function is the
// clock used for the lockout; nil means time.Now.
func NewPump(flowRate Flow, minRunTime time.Duration, now func() time.Time) (*Pump, error) {
	if !validPositive(float64(flowRate)) {
		return nil, fmt.Errorf("pump flow rate %v: %w", flowRate, ErrInvalidFlowRate)
	}
	if minRunTime < 0 {
		return nil, fmt.Errorf("pump min run time %v: %w", minRunTime, ErrInvalidMinRunTime)
	}
	if now == nil {
		now = time.Now
	}
	return &Pump{
		flowRate:   flowRate,
		minRunTime: minRunTime,
		now:        now,
	}, nil
}

// SetCommanded applies an on/off command. Turning on records the activation
// time. Turning off is ignored until the minimum run time has elapsed since
// the last activation.
func (p *Pump) SetCommanded(on bool) {
	t := p.now()
	if on {
		p.on = true
		p.lastActivation = t
		return
	}
	if t.Sub(p.lastActivation) >= p.minRunTime {
		p.on = false
	}
}

// FlowRate returns the rated flow when on, otherwise 0.
func (p *Pump) FlowRate() Flow {
	if p.on {
		return p.flowRate
	}
	return 0
}

// IsOn reports the commanded state.
func (p *Pump) IsOn() bool {
	return p.on
}

// State returns the commanded state as a State.
func (p *Pump) State() State {
	if p.on {
		return StateOn
	}
	return StateOff
}

// RatedFlow returns the flow rate fixed at construction.
func (p *Pump) RatedFlow() Flow {
	return p.flowRate
}

// MinRunTime returns the lockout duration.
func (p *Pump) MinRunTime() time.Duration {
	return p.minRunTime
}

// LastActivation returns the time of the most recent on command.
func (p *Pump) LastActivation() time.Time {
	return p.lastActivation
}
