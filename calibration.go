package mindcuber

import (
	"fmt"
	"math"
	"time"
)

// Calibration holds the empirically tuned constants of one mechanism.
// Positions are motor degrees, speeds degrees per second.
type Calibration struct {
	// Turntable geometry. The turntable is geared 1:3, so a cube quarter
	// turn is 270 motor degrees and a full cube rotation 1080.
	QuarterTurn  int `yaml:"quarter_turn"`
	Quantum      int `yaml:"quantum"`
	FullRotation int `yaml:"full_rotation"`

	// FaceTurnSense is the turntable sign for a clockwise turn of the down
	// face. The face is viewed from below, so it is -1 on a MindCub3r.
	FaceTurnSense int `yaml:"face_turn_sense"`

	// Blocked rotation: overshoot past the target, then creep back at
	// RotateSpeed/CreepDivisor.
	Overshoot    int `yaml:"overshoot"`
	CreepDivisor int `yaml:"creep_divisor"`

	RotateSpeed      int `yaml:"rotate_speed"`
	FlipSpeed        int `yaml:"flip_speed"`
	FlipPushSpeed    int `yaml:"flip_push_speed"`
	FlipperAwaySpeed int `yaml:"flipper_away_speed"`
	ColorArmSpeed    int `yaml:"colorarm_speed"`

	// Flipper positions.
	FlipperHold          int           `yaml:"flipper_hold"`
	FlipperHoldTolerance int           `yaml:"flipper_hold_tolerance"`
	FlipperPull          int           `yaml:"flipper_pull"`
	FlipperAway          int           `yaml:"flipper_away"`
	FlipperClearance     int           `yaml:"flipper_clearance"`
	FlipSettle           time.Duration `yaml:"flip_settle"`

	// Color arm positions. Squares holds the arm target for squares 1..8
	// (odd: corners, even: edges).
	ColorArmCenter  int    `yaml:"colorarm_center"`
	ColorArmSquares [8]int `yaml:"colorarm_squares"`
	ColorArmRemove  int    `yaml:"colorarm_remove"`
	ColorArmHalfway int    `yaml:"colorarm_halfway"`

	// Milestones are the turntable positions at which squares 1..8 are
	// sampled while the face spins through one full rotation.
	Milestones [8]int `yaml:"milestones"`

	PollInterval time.Duration `yaml:"poll_interval"`

	// Homing speeds; the sign selects the end stop.
	FlipperHomeSpeed  int `yaml:"flipper_home_speed"`
	ColorArmHomeSpeed int `yaml:"colorarm_home_speed"`

	// Cube presence detection.
	ProximityPresent  int           `yaml:"proximity_present"`
	ProximityGlitch   int           `yaml:"proximity_glitch"`
	ProximityReads    int           `yaml:"proximity_reads"`
	ProximityInterval time.Duration `yaml:"proximity_interval"`
}

// DefaultCalibration returns the values tuned for a stock MindCub3r.
func DefaultCalibration() Calibration {
	return Calibration{
		QuarterTurn:   270,
		Quantum:       135,
		FullRotation:  1080,
		FaceTurnSense: -1,

		Overshoot:    18,
		CreepDivisor: 4,

		RotateSpeed:      400,
		FlipSpeed:        300,
		FlipPushSpeed:    400,
		FlipperAwaySpeed: 300,
		ColorArmSpeed:    600,

		FlipperHold:          85,
		FlipperHoldTolerance: 10,
		FlipperPull:          190,
		FlipperAway:          0,
		FlipperClearance:     35,
		FlipSettle:           50 * time.Millisecond,

		ColorArmCenter:  -750,
		ColorArmSquares: [8]int{-590, -660, -610, -680, -600, -660, -580, -640},
		ColorArmRemove:  0,
		ColorArmHalfway: -400,

		Milestones: [8]int{115, 220, 380, 540, 675, 810, 945, 1060},

		PollInterval: 10 * time.Millisecond,

		FlipperHomeSpeed:  -50,
		ColorArmHomeSpeed: 500,

		ProximityPresent:  50,
		ProximityGlitch:   100,
		ProximityReads:    10,
		ProximityInterval: 100 * time.Millisecond,
	}
}

// Validate checks the calibration for values the engine cannot work with.
func (c Calibration) Validate() error {
	switch {
	case c.Quantum <= 0:
		return fmt.Errorf("calibration: quantum must be positive, got %d", c.Quantum)
	case c.QuarterTurn <= 0:
		return fmt.Errorf("calibration: quarter_turn must be positive, got %d", c.QuarterTurn)
	case c.CreepDivisor < 1:
		return fmt.Errorf("calibration: creep_divisor must be at least 1, got %d", c.CreepDivisor)
	case c.FaceTurnSense != 1 && c.FaceTurnSense != -1:
		return fmt.Errorf("calibration: face_turn_sense must be 1 or -1, got %d", c.FaceTurnSense)
	case c.RotateSpeed <= 0:
		return fmt.Errorf("calibration: rotate_speed must be positive, got %d", c.RotateSpeed)
	case c.PollInterval <= 0:
		return fmt.Errorf("calibration: poll_interval must be positive")
	}

	prev := 0
	for i, m := range c.Milestones {
		if m <= prev {
			return fmt.Errorf("calibration: milestone %d (%d) must exceed %d", i+1, m, prev)
		}
		prev = m
	}
	if prev >= c.FullRotation {
		return fmt.Errorf("calibration: last milestone %d must be below full_rotation %d", prev, c.FullRotation)
	}
	return nil
}

// NearestStable rounds a turntable position to the nearest multiple of the
// angular quantum.
func (c Calibration) NearestStable(position int) int {
	return NearestMultiple(position, c.Quantum)
}

// NearestMultiple rounds v to the nearest multiple of q. Halves round away
// from zero.
func NearestMultiple(v, q int) int {
	return q * int(math.Round(float64(v)/float64(q)))
}

// CreepSpeed is the speed of the second phase of a blocked rotation.
func (c Calibration) CreepSpeed() int {
	s := c.RotateSpeed / c.CreepDivisor
	if s < 1 {
		s = 1
	}
	return s
}
