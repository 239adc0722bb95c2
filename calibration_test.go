package mindcuber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestMultiple(t *testing.T) {
	tests := []struct {
		v, q, want int
	}{
		{0, 135, 0},
		{67, 135, 0},
		{68, 135, 135},
		{270, 135, 270},
		{-68, 135, -135},
		{-270, 135, -270},
		{283, 135, 270},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearestMultiple(tt.v, tt.q), "NearestMultiple(%d, %d)", tt.v, tt.q)
	}
}

func TestBlockedTargets(t *testing.T) {
	c := DefaultCalibration()

	// A clockwise down-face turn drives the turntable negative.
	target, overshoot := c.BlockedTargets(0, CW, 1)
	assert.Equal(t, -270, target)
	assert.Equal(t, -288, overshoot)

	target, overshoot = c.BlockedTargets(0, CCW, 1)
	assert.Equal(t, 270, target)
	assert.Equal(t, 288, overshoot)

	target, overshoot = c.BlockedTargets(540, CW, 2)
	assert.Equal(t, 0, target)
	assert.Equal(t, -18, overshoot)

	// A drifted start position snaps back onto the grid.
	target, _ = c.BlockedTargets(9, CCW, 1)
	assert.Equal(t, 270, target)
}

func TestCreepSpeed(t *testing.T) {
	c := DefaultCalibration()
	assert.Equal(t, 100, c.CreepSpeed())

	c.RotateSpeed = 2
	assert.Equal(t, 1, c.CreepSpeed())
}

func TestCalibrationValidate(t *testing.T) {
	require.NoError(t, DefaultCalibration().Validate())

	tests := []struct {
		name   string
		mutate func(*Calibration)
	}{
		{"quantum", func(c *Calibration) { c.Quantum = 0 }},
		{"quarter", func(c *Calibration) { c.QuarterTurn = -1 }},
		{"creep", func(c *Calibration) { c.CreepDivisor = 0 }},
		{"sense", func(c *Calibration) { c.FaceTurnSense = 0 }},
		{"speed", func(c *Calibration) { c.RotateSpeed = 0 }},
		{"poll", func(c *Calibration) { c.PollInterval = 0 }},
		{"milestone order", func(c *Calibration) { c.Milestones[3] = c.Milestones[2] }},
		{"milestone range", func(c *Calibration) { c.Milestones[7] = c.FullRotation }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCalibration()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestScanOrderIsPermutation(t *testing.T) {
	seen := make(map[int]bool, FaceletCount)
	for _, idx := range ScanOrder {
		require.True(t, idx >= 0 && idx < FaceletCount, "index %d out of range", idx)
		require.False(t, seen[idx], "index %d repeated", idx)
		seen[idx] = true
	}

	// Each face starts with its center.
	for face := 0; face < ScanFaces; face++ {
		_, square := FaceletFace(ScanOrder[face*9])
		assert.Equal(t, 4, square)
	}
}

func TestScanChoreographyVisitsEveryFace(t *testing.T) {
	o := NewOrientation()
	want := []Face{FaceU, FaceF, FaceD, FaceL, FaceB, FaceR}

	for face := 1; face <= ScanFaces; face++ {
		if face > 1 {
			o.Apply(ScanTransition(face - 1).Transform())
		}
		assert.Equal(t, want[face-1], o.At(SlotUp), "face %d", face)

		// The sensor reads the up slot; the scan order must file those
		// readings under the same face.
		got, _ := FaceletFace(ScanOrder[(face-1)*9])
		assert.Equal(t, o.At(SlotUp), got)
	}
}
