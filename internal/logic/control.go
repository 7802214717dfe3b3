package logic

import "fmt"

// ControlSystem is a deadband (bang-bang) controller. It observes one tank
// and commands the pump. It holds no state of its own: the pump's commanded
// state is the controller state.
type ControlSystem struct {
	pump     *Pump
	tank     *Tank
	setPoint Level
	deadband Level
}

// NewControlSystem creates a controller for the given pump and observed tank.
// The pump and tank are not owned by the controller.
func NewControlSystem(pump *Pump, tank *Tank, setPoint, deadband Level) (*ControlSystem, error) {
	if pump == nil || tank == nil {
		return nil, fmt.Errorf("control system: %w", ErrNilComponent)
	}
	if !validLevel(setPoint) {
		return nil, fmt.Errorf("set point %v: %w", setPoint, ErrInvalidLevel)
	}
	if !validNonNegative(float64(deadband)) {
		return nil, fmt.Errorf("deadband %v: %w", deadband, ErrInvalidDeadband)
	}
	return &ControlSystem{
		pump:     pump,
		tank:     tank,
		setPoint: setPoint,
		deadband: deadband,
	}, nil
}

// Update commands the pump on above the band and off below it. Inside the
// band (edges included) no command is issued and the pump keeps its state.
// An off command is still subject to the pump's lockout.
func (c *ControlSystem) Update() Command {
	low, high := c.Band()
	level := c.tank.Level()
	switch {
	case level > high:
		c.pump.SetCommanded(true)
		return CommandOn
	case level < low:
		c.pump.SetCommanded(false)
		return CommandOff
	}
	return CommandNone
}

// Band returns the hysteresis band edges.
func (c *ControlSystem) Band() (low, high Level) {
	return c.setPoint - c.deadband, c.setPoint + c.deadband
}

func (c *ControlSystem) SetPoint() Level { return c.setPoint }
func (c *ControlSystem) Deadband() Level { return c.deadband }
