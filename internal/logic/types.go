// Package logic contains the physical model and control loop of the two-tank
// water system. This package has NO external dependencies (no GPIO, MQTT, OS,
// or time.Sleep). Time is always injectable, either as a clock function or as
// time.Duration / time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// Length is a distance in millimetres. Pressure is modelled as a water column
// height difference and is therefore also a Length.
type Length float64

// Volume is a volume in cubic millimetres.
type Volume float64

// Flow is a volumetric flow rate in cubic millimetres per second.
type Flow float64

// Level is the fractional fill of a tank, nominally in [0,1].
type Level float64

// Over returns the volume moved by this flow during dt.
func (f Flow) Over(dt time.Duration) Volume {
	return Volume(float64(f) * dt.Seconds())
}

// State represents the logical state of the pump.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Command is the action the controller issued during an update.
type Command int

const (
	CommandNone Command = iota
	CommandOn
	CommandOff
)

func (c Command) String() string {
	switch c {
	case CommandOn:
		return "ON"
	case CommandOff:
		return "OFF"
	default:
		return "NONE"
	}
}

// EventType represents a state transition event.
type EventType string

const (
	EventPumpOn         EventType = "PUMP_ON"
	EventPumpOff        EventType = "PUMP_OFF"
	EventTankAOverflow  EventType = "TANK_A_OVERFLOW"
	EventTankAUnderflow EventType = "TANK_A_UNDERFLOW"
	EventTankBOverflow  EventType = "TANK_B_OVERFLOW"
	EventTankBUnderflow EventType = "TANK_B_UNDERFLOW"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Pump      State
	LevelA    Level
	LevelB    Level
}

// Condition is the boundary condition of a tank after clamping.
type Condition string

const (
	ConditionNormal    Condition = ""
	ConditionOverflow  Condition = "OVERFLOW"
	ConditionUnderflow Condition = "UNDERFLOW"
)

// Integration selects how a net volume is turned into a level change.
type Integration string

const (
	// IntegrateCapacity divides by the full tank capacity and is the default.
	// It deliberately departs from dividing by the pre-step water volume
	// (IntegrateVolume): only a fixed denominator keeps total volume
	// conserved across steps. See "Open question decisions" in DESIGN.md.
	IntegrateCapacity Integration = "capacity"
	// IntegrateVolume divides by the pre-step water volume of each tank.
	// Drifts for large steps and fails on an empty tank.
	IntegrateVolume Integration = "volume"
)

// StepResult is the observable outcome of one WaterSystem.Step.
type StepResult struct {
	Elapsed     time.Duration
	Command     Command
	Pump        State
	Pressure    Length
	PumpVolume  Volume
	DrainVolume Volume
	// Net is PumpVolume - DrainVolume: positive fills Tank A.
	Net    Volume
	DeltaA Level
	DeltaB Level
	Events []Event
}

// Reading is a point-in-time view of the system for reporting.
type Reading struct {
	LevelA       Level
	LevelB       Level
	WaterHeightA Length
	WaterHeightB Length
	Pump         State
	PumpFlow     Flow
	DrainFlow    Flow
}

// Counts tracks steps and events since construction.
type Counts struct {
	Steps      int
	PumpOn     int
	PumpOff    int
	Overflows  int
	Underflows int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
	Reading   Reading
}

var (
	ErrInvalidGeometry    = errors.New("logic: dimension must be positive")
	ErrInvalidFlowRate    = errors.New("logic: flow rate must be positive")
	ErrInvalidLevel       = errors.New("logic: level must be within [0,1]")
	ErrInvalidDeadband    = errors.New("logic: deadband must not be negative")
	ErrInvalidMinRunTime  = errors.New("logic: minimum run time must not be negative")
	ErrNilComponent       = errors.New("logic: component is nil")
	ErrUnknownIntegration = errors.New("logic: unknown integration mode")
	ErrNegativeStep       = errors.New("logic: time step must not be negative")
	ErrEmptyTank          = errors.New("logic: tank volume is zero")
	ErrControlWiring      = errors.New("logic: controller must drive the system pump and observe tank B")
)
