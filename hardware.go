package mindcuber

import (
	"context"
	"fmt"
)

// Axis identifies one motor of the mechanism.
type Axis string

const (
	AxisFlipper   Axis = "flipper"
	AxisTurntable Axis = "turntable"
	AxisColorArm  Axis = "colorarm"
)

// Axes returns all axes in a stable order.
func Axes() []Axis {
	return []Axis{AxisFlipper, AxisTurntable, AxisColorArm}
}

// StopMode selects what a motor does once stopped.
type StopMode int

const (
	Coast StopMode = iota // De-energize; the motor spins freely
	Brake                 // Short the windings, then release
	Hold                  // Actively hold the current position
)

func (m StopMode) String() string {
	switch m {
	case Coast:
		return "coast"
	case Brake:
		return "brake"
	case Hold:
		return "hold"
	default:
		return "unknown"
	}
}

// Actuator drives the motors. Positions are in motor degrees relative to the
// last ResetPosition; speeds are degrees per second.
type Actuator interface {
	// MoveTo drives axis to position and blocks until the motion completes.
	MoveTo(ctx context.Context, axis Axis, position, speed int, hold bool) error

	// RunTo starts a motion toward position and returns immediately. The
	// motion continues until the target is reached or Stop is called.
	RunTo(ctx context.Context, axis Axis, position, speed int) error

	// Position returns the current angular position of axis.
	Position(ctx context.Context, axis Axis) (int, error)

	// Running reports whether axis is still executing a motion.
	Running(ctx context.Context, axis Axis) (bool, error)

	// Stop halts axis using mode.
	Stop(ctx context.Context, axis Axis, mode StopMode) error

	// ResetPosition makes the current position of axis read as zero.
	ResetPosition(ctx context.Context, axis Axis) error
}

// Homer is implemented by actuators that can drive an axis against its end
// stop and zero it there.
type Homer interface {
	Home(ctx context.Context, axis Axis, speed int) error
}

// RGB is a raw color sensor reading.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Sensor reads the color sensor and the cube-presence proximity sensor.
type Sensor interface {
	ReadColor(ctx context.Context) (RGB, error)
	ReadProximity(ctx context.Context) (int, error)
}

// FaceletCount is the number of facelets on a 3x3x3 cube.
const FaceletCount = 54

// FaceletColors maps a facelet index (0..53, see ScanOrder) to its reading.
type FaceletColors map[int]RGB

// Complete reports whether every index 0..53 has exactly one reading.
func (fc FaceletColors) Complete() bool {
	if len(fc) != FaceletCount {
		return false
	}
	for i := 0; i < FaceletCount; i++ {
		if _, ok := fc[i]; !ok {
			return false
		}
	}
	return true
}

// Resolver turns 54 raw readings into a 54-character facelet string.
type Resolver interface {
	Resolve(ctx context.Context, colors FaceletColors) (string, error)
}

// Solver computes a move list for a facelet string.
type Solver interface {
	Solve(ctx context.Context, facelets string) ([]string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, colors FaceletColors) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context, colors FaceletColors) (string, error) {
	return f(ctx, colors)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, facelets string) ([]string, error)

func (f SolverFunc) Solve(ctx context.Context, facelets string) ([]string, error) {
	return f(ctx, facelets)
}
