// Package config loads water-system scenario files.
//
// A scenario describes the geometry and rates of the two tanks, the pump, the
// drain and the controller. Scenario files are YAML; any key left out keeps
// the value from Default, so a file only needs to name what it changes:
//
//	tank_b:
//	  level: 0.8
//	control:
//	  deadband: 0.05
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/water-system/internal/logic"
)

// TankConfig describes one cylindrical tank.
type TankConfig struct {
	HeightMM   float64 `yaml:"height_mm"`
	DiameterMM float64 `yaml:"diameter_mm"`
	Level      float64 `yaml:"level"`
}

// PumpConfig describes the pump between the tanks.
type PumpConfig struct {
	FlowRate   float64       `yaml:"flow_rate_mm3s"`
	MinRunTime time.Duration `yaml:"min_run_time"`
}

// DrainConfig describes the drain orifice from tank A to tank B.
type DrainConfig struct {
	DiameterMM float64 `yaml:"diameter_mm"`
}

// ControlConfig describes the deadband controller on tank B.
type ControlConfig struct {
	SetPoint float64 `yaml:"set_point"`
	Deadband float64 `yaml:"deadband"`
}

// Config is a complete simulation scenario.
type Config struct {
	TankA       TankConfig    `yaml:"tank_a"`
	TankB       TankConfig    `yaml:"tank_b"`
	Pump        PumpConfig    `yaml:"pump"`
	Drain       DrainConfig   `yaml:"drain"`
	Control     ControlConfig `yaml:"control"`
	Integration string        `yaml:"integration"`
}

// Default returns the reference scenario: a 200mm tank half full next to a
// full 100mm tank, an 8000 mm³/s pump, a 9mm drain and a 50% ± 2% set point.
func Default() Config {
	return Config{
		TankA:       TankConfig{HeightMM: 200, DiameterMM: 100, Level: 0.5},
		TankB:       TankConfig{HeightMM: 100, DiameterMM: 100, Level: 1.0},
		Pump:        PumpConfig{FlowRate: 8000, MinRunTime: logic.DefaultMinRunTime},
		Drain:       DrainConfig{DiameterMM: 9},
		Control:     ControlConfig{SetPoint: 0.5, Deadband: 0.02},
		Integration: string(logic.IntegrateCapacity),
	}
}

// Load reads a scenario file on top of Default and validates the result.
// An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every value without building the system, reporting all
// problems at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, key string, v any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s: invalid value %v", key, v))
		}
	}

	check(c.TankA.HeightMM > 0, "tank_a.height_mm", c.TankA.HeightMM)
	check(c.TankA.DiameterMM > 0, "tank_a.diameter_mm", c.TankA.DiameterMM)
	check(c.TankA.Level >= 0 && c.TankA.Level <= 1, "tank_a.level", c.TankA.Level)
	check(c.TankB.HeightMM > 0, "tank_b.height_mm", c.TankB.HeightMM)
	check(c.TankB.DiameterMM > 0, "tank_b.diameter_mm", c.TankB.DiameterMM)
	check(c.TankB.Level >= 0 && c.TankB.Level <= 1, "tank_b.level", c.TankB.Level)
	check(c.Pump.FlowRate > 0, "pump.flow_rate_mm3s", c.Pump.FlowRate)
	check(c.Pump.MinRunTime >= 0, "pump.min_run_time", c.Pump.MinRunTime)
	check(c.Drain.DiameterMM > 0, "drain.diameter_mm", c.Drain.DiameterMM)
	check(c.Control.SetPoint >= 0 && c.Control.SetPoint <= 1, "control.set_point", c.Control.SetPoint)
	check(c.Control.Deadband >= 0, "control.deadband", c.Control.Deadband)

	switch logic.Integration(c.Integration) {
	case "", logic.IntegrateCapacity, logic.IntegrateVolume:
	default:
		errs = append(errs, fmt.Errorf("integration: unknown mode %q", c.Integration))
	}

	return errors.Join(errs...)
}

// Build constructs the water system described by the scenario. The now
// function is the clock for the pump lockout; nil means time.Now.
func (c Config) Build(now func() time.Time) (*logic.WaterSystem, error) {
	tankA, err := logic.NewTank(logic.Length(c.TankA.HeightMM), logic.Length(c.TankA.DiameterMM), logic.Level(c.TankA.Level))
	if err != nil {
		return nil, fmt.Errorf("tank_a: %w", err)
	}
	tankB, err := logic.NewTank(logic.Length(c.TankB.HeightMM), logic.Length(c.TankB.DiameterMM), logic.Level(c.TankB.Level))
	if err != nil {
		return nil, fmt.Errorf("tank_b: %w", err)
	}
	pump, err := logic.NewPump(logic.Flow(c.Pump.FlowRate), c.Pump.MinRunTime, now)
	if err != nil {
		return nil, fmt.Errorf("pump: %w", err)
	}
	drain, err := logic.NewDrain(logic.Length(c.Drain.DiameterMM))
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	ctrl, err := logic.NewControlSystem(pump, tankB, logic.Level(c.Control.SetPoint), logic.Level(c.Control.Deadband))
	if err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}
	return logic.NewWaterSystem(tankA, tankB, pump, drain, ctrl, logic.Integration(c.Integration))
}

// Marshal returns the scenario as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
