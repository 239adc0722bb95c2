package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/cube"
)

func TestRunAdvancesPerPoll(t *testing.T) {
	ctx := context.Background()
	r := New(mindcuber.DefaultCalibration(), WithRunStep(100))

	require.NoError(t, r.RunTo(ctx, mindcuber.AxisTurntable, 250, 400))
	running, err := r.Running(ctx, mindcuber.AxisTurntable)
	require.NoError(t, err)
	assert.True(t, running)

	var seen []int
	var last error
	for running {
		pos, err := r.Position(ctx, mindcuber.AxisTurntable)
		seen = append(seen, pos)
		last = err
		running, _ = r.Running(ctx, mindcuber.AxisTurntable)
	}
	// 250 is not a whole quarter turn.
	assert.ErrorIs(t, last, ErrJammed)
	assert.Equal(t, []int{100, 200, 250}, seen)
}

func TestFullSpinKeepsOrientation(t *testing.T) {
	ctx := context.Background()
	cal := mindcuber.DefaultCalibration()
	r := New(cal)

	require.NoError(t, r.RunTo(ctx, mindcuber.AxisTurntable, cal.FullRotation, cal.RotateSpeed))
	for {
		pos, err := r.Position(ctx, mindcuber.AxisTurntable)
		require.NoError(t, err)
		if pos == cal.FullRotation {
			break
		}
	}
	assert.Equal(t, mindcuber.NewOrientation(), r.Orientation())
	_, rotations := r.Counts()
	assert.Equal(t, 4, rotations)
}

func TestBlockedTurnTurnsDownFace(t *testing.T) {
	ctx := context.Background()
	cal := mindcuber.DefaultCalibration()
	r := New(cal)

	require.NoError(t, r.MoveTo(ctx, mindcuber.AxisFlipper, cal.FlipperHold, cal.FlipSpeed, true))
	target, overshoot := cal.BlockedTargets(0, mindcuber.CW, 1)
	require.NoError(t, r.MoveTo(ctx, mindcuber.AxisTurntable, overshoot, cal.RotateSpeed, true))
	assert.Empty(t, r.Turns())
	require.NoError(t, r.MoveTo(ctx, mindcuber.AxisTurntable, target, cal.CreepSpeed(), true))

	assert.Equal(t, []mindcuber.Move{{Face: mindcuber.FaceD, Turns: 1, Direction: mindcuber.CW}}, r.Turns())
	assert.False(t, r.Solved())
	assert.Equal(t, mindcuber.NewOrientation(), r.Orientation())
}

func TestReleasingMisalignedLayerJams(t *testing.T) {
	ctx := context.Background()
	cal := mindcuber.DefaultCalibration()
	r := New(cal)

	require.NoError(t, r.MoveTo(ctx, mindcuber.AxisFlipper, cal.FlipperHold, cal.FlipSpeed, true))
	require.NoError(t, r.MoveTo(ctx, mindcuber.AxisTurntable, 100, cal.RotateSpeed, true))
	err := r.MoveTo(ctx, mindcuber.AxisFlipper, cal.FlipperAway, cal.FlipperAwaySpeed, true)
	assert.ErrorIs(t, err, ErrJammed)
}

func TestFaultIsReturnedOnce(t *testing.T) {
	ctx := context.Background()
	r := New(mindcuber.DefaultCalibration())
	r.Fail(mindcuber.AxisColorArm, assert.AnError)

	assert.ErrorIs(t, r.MoveTo(ctx, mindcuber.AxisColorArm, -750, 600, true), assert.AnError)
	assert.NoError(t, r.MoveTo(ctx, mindcuber.AxisColorArm, -750, 600, true))
}

func TestProximityScript(t *testing.T) {
	ctx := context.Background()
	r := New(mindcuber.DefaultCalibration(), WithProximity(200, 30))

	for _, want := range []int{200, 30, 30, 30} {
		got, err := r.ReadProximity(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func solvedColors() mindcuber.FaceletColors {
	colors := make(mindcuber.FaceletColors, mindcuber.FaceletCount)
	for i := 0; i < mindcuber.FaceletCount; i++ {
		face, _ := mindcuber.FaceletFace(i)
		f, _ := cube.FaceOf(face)
		colors[i] = Palette[cube.SolvedColor(f)]
	}
	return colors
}

func TestResolvePalette(t *testing.T) {
	got, err := ResolvePalette(solvedColors())
	require.NoError(t, err)
	assert.Equal(t, cube.New().FaceletString(), got)
}

func TestResolvePaletteRejectsUnknownColor(t *testing.T) {
	colors := solvedColors()
	colors[0] = mindcuber.RGB{R: 1, G: 2, B: 3}

	_, err := ResolvePalette(colors)
	assert.ErrorIs(t, err, mindcuber.ErrResolution)

	delete(colors, 0)
	_, err = ResolvePalette(colors)
	assert.ErrorIs(t, err, mindcuber.ErrResolution)
}

func TestSolverRejectsMismatchedFacelets(t *testing.T) {
	r := New(mindcuber.DefaultCalibration())
	_, err := r.Solver().Solve(context.Background(), "bogus")
	assert.Error(t, err)

	tokens, err := r.Solver().Solve(context.Background(), r.Cube().FaceletString())
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestReinsertRestoresOrientation(t *testing.T) {
	ctx := context.Background()
	cal := mindcuber.DefaultCalibration()
	r := New(cal, WithScramble(9, 6))
	before := r.Cube().FaceletString()

	require.NoError(t, r.MoveTo(ctx, mindcuber.AxisTurntable, cal.QuarterTurn, cal.RotateSpeed, true))
	require.NotEqual(t, mindcuber.NewOrientation(), r.Orientation())

	r.Reinsert()
	assert.Equal(t, mindcuber.NewOrientation(), r.Orientation())
	assert.Equal(t, before, r.Cube().FaceletString())
}
