package mindcuber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanToDownBySlot(t *testing.T) {
	tests := []struct {
		slot int
		want string
	}{
		{SlotUp, "flip flip"},
		{SlotDown, "-"},
		{SlotFront, "rotate_cw rotate_cw flip"},
		{SlotLeft, "rotate_cw flip"},
		{SlotBack, "flip"},
		{SlotRight, "rotate_ccw flip"},
	}

	o := NewOrientation()
	for _, tt := range tests {
		face := o.At(tt.slot)
		t.Run(string(face), func(t *testing.T) {
			plan, err := PlanToDown(o, face)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.String())
		})
	}
}

func TestPlanToDownFromEveryOrientation(t *testing.T) {
	for _, o := range reachable() {
		for _, face := range Faces() {
			plan, err := PlanToDown(o, face)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(plan), 3)

			got := o.Applied(plan.Transform())
			assert.Equal(t, face, got.At(WorkingSlot), "orientation %s face %s plan %s", o, face, plan)
			require.NoError(t, got.Validate())
		}
	}
}

func TestPlanToDownDoesNotShareTable(t *testing.T) {
	plan, err := PlanToDown(NewOrientation(), FaceU)
	require.NoError(t, err)
	plan[0] = Action{Kind: ActionRotateCCW}

	again, err := PlanToDown(NewOrientation(), FaceU)
	require.NoError(t, err)
	assert.Equal(t, "flip flip", again.String())
}

func TestPlanToDownInvalidOrientation(t *testing.T) {
	o := Orientation{FaceU, FaceU, FaceF, FaceL, FaceB, FaceR}
	_, err := PlanToDown(o, FaceD)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestPlanMoves(t *testing.T) {
	moves, err := ParseMoves("D U F2 R'")
	require.NoError(t, err)

	planned, err := PlanMoves(NewOrientation(), moves)
	require.NoError(t, err)
	require.Len(t, planned, 4)

	// D is already down.
	assert.Equal(t, "rotate_blocked(cw,1)", planned[0].Plan.String())
	assert.Equal(t, "flip flip rotate_blocked(cw,1)", planned[1].Plan.String())

	for _, p := range planned {
		assert.Equal(t, p.Move.Face, p.Orientation.At(WorkingSlot))
		last := p.Plan[len(p.Plan)-1]
		assert.Equal(t, ActionRotateBlocked, last.Kind)
		assert.Equal(t, p.Move.Turns, last.Count)
	}

	counts := CountActions(planned)
	assert.Equal(t, 4, counts[ActionRotateBlocked])
}

func TestPlanMovesRejectsBadMove(t *testing.T) {
	_, err := PlanMoves(NewOrientation(), []Move{{Face: "X", Turns: 1, Direction: CW}})
	assert.ErrorIs(t, err, ErrInvalidNotation)
}
