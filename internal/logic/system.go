package logic

import (
	"fmt"
	"time"
)

// WaterSystem composes two tanks, a pump, a drain and a controller into one
// steppable simulation. It is the only thing that mutates tank levels.
// Not safe for concurrent use.
type WaterSystem struct {
	tankA       *Tank
	tankB       *Tank
	pump        *Pump
	drain       Drain
	control     *ControlSystem
	integration Integration

	condA, condB  Condition
	counts        Counts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewWaterSystem wires the components together. The controller must command
// the given pump and observe tankB. An empty integration mode selects
// IntegrateCapacity.
func NewWaterSystem(tankA, tankB *Tank, pump *Pump, drain Drain, control *ControlSystem, integration Integration) (*WaterSystem, error) {
	if tankA == nil || tankB == nil || pump == nil || control == nil {
		return nil, fmt.Errorf("water system: %w", ErrNilComponent)
	}
	if tankA == tankB {
		return nil, fmt.Errorf("water system: tank A and tank B are the same tank: %w", ErrControlWiring)
	}
	if control.pump != pump || control.tank != tankB {
		return nil, fmt.Errorf("water system: %w", ErrControlWiring)
	}
	if !validPositive(float64(drain.diameter)) {
		return nil, fmt.Errorf("water system drain: %w", ErrInvalidGeometry)
	}
	switch integration {
	case "":
		integration = IntegrateCapacity
	case IntegrateCapacity, IntegrateVolume:
	default:
		return nil, fmt.Errorf("integration %q: %w", integration, ErrUnknownIntegration)
	}

	start := pump.now()
	return &WaterSystem{
		tankA:         tankA,
		tankB:         tankB,
		pump:          pump,
		drain:         drain,
		control:       control,
		integration:   integration,
		startTime:     start,
		lastHeartbeat: start,
	}, nil
}

// Step advances the simulation by dt. The controller runs first, then pump
// inflow to Tank A and drain outflow from A to B are integrated with the
// pre-step state. Levels are clamped into [0,1]; a tank reaching a bound
// emits an overflow or underflow event once until it leaves the bound.
func (w *WaterSystem) Step(dt time.Duration) (StepResult, error) {
	if dt < 0 {
		return StepResult{}, fmt.Errorf("step %v: %w", dt, ErrNegativeStep)
	}

	var denomA, denomB Volume
	switch w.integration {
	case IntegrateVolume:
		denomA, denomB = w.tankA.Volume(), w.tankB.Volume()
		if denomA == 0 {
			return StepResult{}, fmt.Errorf("tank A: %w", ErrEmptyTank)
		}
		if denomB == 0 {
			return StepResult{}, fmt.Errorf("tank B: %w", ErrEmptyTank)
		}
	default:
		denomA, denomB = w.tankA.Capacity(), w.tankB.Capacity()
	}

	wasOn := w.pump.IsOn()
	res := StepResult{
		Elapsed: dt,
		Command: w.control.Update(),
		Pump:    w.pump.State(),
	}

	res.PumpVolume = w.pump.FlowRate().Over(dt)
	res.Pressure = w.Pressure()
	res.DrainVolume = w.drain.FlowRate(res.Pressure).Over(dt)
	res.Net = res.PumpVolume - res.DrainVolume

	prevA, prevB := w.tankA.level, w.tankB.level
	w.tankA.level += Level(res.Net / denomA)
	w.tankB.level -= Level(res.Net / denomB)
	condA := w.tankA.clampLevel()
	condB := w.tankB.clampLevel()
	res.DeltaA = w.tankA.level - prevA
	res.DeltaB = w.tankB.level - prevB

	now := w.pump.now()
	if on := w.pump.IsOn(); on != wasOn {
		if on {
			res.Events = append(res.Events, w.event(now, EventPumpOn))
		} else {
			res.Events = append(res.Events, w.event(now, EventPumpOff))
		}
	}
	if condA != w.condA {
		if t, ok := conditionEvent(condA, EventTankAOverflow, EventTankAUnderflow); ok {
			res.Events = append(res.Events, w.event(now, t))
		}
		w.condA = condA
	}
	if condB != w.condB {
		if t, ok := conditionEvent(condB, EventTankBOverflow, EventTankBUnderflow); ok {
			res.Events = append(res.Events, w.event(now, t))
		}
		w.condB = condB
	}

	w.counts.Steps++
	for _, e := range res.Events {
		switch e.Type {
		case EventPumpOn:
			w.counts.PumpOn++
		case EventPumpOff:
			w.counts.PumpOff++
		case EventTankAOverflow, EventTankBOverflow:
			w.counts.Overflows++
		case EventTankAUnderflow, EventTankBUnderflow:
			w.counts.Underflows++
		}
	}

	return res, nil
}

func conditionEvent(c Condition, overflow, underflow EventType) (EventType, bool) {
	switch c {
	case ConditionOverflow:
		return overflow, true
	case ConditionUnderflow:
		return underflow, true
	}
	return "", false
}

func (w *WaterSystem) event(now time.Time, t EventType) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		Pump:      w.pump.State(),
		LevelA:    w.tankA.level,
		LevelB:    w.tankB.level,
	}
}

// Pressure returns the water column difference driving the drain. The drain
// only flows from A to B, so the result is never negative.
func (w *WaterSystem) Pressure() Length {
	p := w.tankA.WaterHeight() - w.tankB.WaterHeight()
	if p < 0 {
		return 0
	}
	return p
}

// DrainFlow returns the instantaneous drain flow from A to B.
func (w *WaterSystem) DrainFlow() Flow {
	return w.drain.FlowRate(w.Pressure())
}

// Reading returns the current levels and flows.
func (w *WaterSystem) Reading() Reading {
	return Reading{
		LevelA:       w.tankA.level,
		LevelB:       w.tankB.level,
		WaterHeightA: w.tankA.WaterHeight(),
		WaterHeightB: w.tankB.WaterHeight(),
		Pump:         w.pump.State(),
		PumpFlow:     w.pump.FlowRate(),
		DrainFlow:    w.DrainFlow(),
	}
}

// Conditions returns the current boundary condition of each tank.
func (w *WaterSystem) Conditions() (a, b Condition) {
	return w.condA, w.condB
}

func (w *WaterSystem) TankA() *Tank { return w.tankA }
func (w *WaterSystem) TankB() *Tank { return w.tankB }
func (w *WaterSystem) Pump() *Pump { return w.pump }
func (w *WaterSystem) Drain() Drain { return w.drain }
func (w *WaterSystem) Control() *ControlSystem { return w.control }
func (w *WaterSystem) Integration() Integration { return w.integration }

// Counts returns a copy of the step and event counters.
func (w *WaterSystem) Counts() Counts {
	return w.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or construction). Returns nil if the interval has not
// elapsed, or if interval is <= 0 (disabled).
func (w *WaterSystem) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(w.lastHeartbeat) < interval {
		return nil
	}

	w.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(w.startTime),
		Counts:    w.counts,
		Reading:   w.Reading(),
	}
}
