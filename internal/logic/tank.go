package logic

import (
	"fmt"
	"math"
)

// Tank is a cylindrical reservoir.
type Tank struct {
	height   Length
	diameter Length
	level    Level
}

// NewTank creates a tank with the given geometry and initial level.
func NewTank(height, diameter Length, level Level) (*Tank, error) {
	if !validPositive(float64(height)) {
		return nil, fmt.Errorf("tank height %v: %w", height, ErrInvalidGeometry)
	}
	if !validPositive(float64(diameter)) {
		return nil, fmt.Errorf("tank diameter %v: %w", diameter, ErrInvalidGeometry)
	}
	if !validLevel(level) {
		return nil, fmt.Errorf("tank level %v: %w", level, ErrInvalidLevel)
	}
	return &Tank{height: height, diameter: diameter, level: level}, nil
}

func (t *Tank) Height() Length { return t.height }
func (t *Tank) Diameter() Length { return t.diameter }
func (t *Tank) Level() Level { return t.level }

// CrossSection returns the area of the tank floor in mm².
func (t *Tank) CrossSection() float64 {
	return circleArea(t.diameter)
}

// Capacity returns the volume of a full tank.
func (t *Tank) Capacity() Volume {
	return Volume(t.CrossSection() * float64(t.height))
}

// Volume returns the water volume at the current level.
func (t *Tank) Volume() Volume {
	return Volume(float64(t.level) * float64(t.Capacity()))
}

// WaterHeight returns the height of the water column.
func (t *Tank) WaterHeight() Length {
	return Length(float64(t.height) * float64(t.level))
}

// clampLevel pins the level into [0,1] and reports which bound was hit.
func (t *Tank) clampLevel() Condition {
	switch {
	case t.level > 1:
		t.level = 1
		return ConditionOverflow
	case t.level < 0:
		t.level = 0
		return ConditionUnderflow
	}
	return ConditionNormal
}

func circleArea(diameter Length) float64 {
	r := float64(diameter) / 2
	return math.Pi * r * r
}

func validLevel(l Level) bool {
	return !math.IsNaN(float64(l)) && l >= 0 && l <= 1
}

// validPositive rejects zero, negatives, NaN and infinities.
func validPositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// validNonNegative rejects negatives, NaN and infinities.
func validNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}
