package mindcuber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrientationIsIdentity(t *testing.T) {
	o := NewOrientation()
	assert.Equal(t, "UDFLBR", o.String())
	require.NoError(t, o.Validate())
	for slot, face := range Faces() {
		got, err := o.SlotOf(face)
		require.NoError(t, err)
		assert.Equal(t, slot, got)
	}
}

func TestTransformsReturnToIdentity(t *testing.T) {
	tests := []struct {
		name  string
		t     Transform
		cycle int
	}{
		{"flip", Flip, 4},
		{"rotate_cw", RotateCW, 4},
		{"rotate_ccw", RotateCCW, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrientation()
			for i := 0; i < tt.cycle; i++ {
				o.Apply(tt.t)
				require.NoError(t, o.Validate())
				if i < tt.cycle-1 {
					assert.NotEqual(t, NewOrientation(), o)
				}
			}
			assert.Equal(t, NewOrientation(), o)
		})
	}
}

func TestRotateCCWUndoesRotateCW(t *testing.T) {
	o := NewOrientation().Applied(RotateCW).Applied(RotateCCW)
	assert.Equal(t, NewOrientation(), o)
	assert.Equal(t, Identity, RotateCW.Then(RotateCCW))
}

func TestFlipMovesFaces(t *testing.T) {
	o := NewOrientation().Applied(Flip)
	// Front comes up, up goes to the back, back comes down.
	assert.Equal(t, "FBDLUR", o.String())
}

func TestThenMatchesSequentialApply(t *testing.T) {
	seq := []Transform{Flip, RotateCW, Flip, RotateCCW, Flip, Flip, RotateCW}

	o := NewOrientation()
	combined := Identity
	for _, tr := range seq {
		o.Apply(tr)
		combined = combined.Then(tr)
	}
	assert.Equal(t, o, NewOrientation().Applied(combined))
}

func TestParseOrientation(t *testing.T) {
	o, err := ParseOrientation("fbdlur")
	require.NoError(t, err)
	assert.Equal(t, NewOrientation().Applied(Flip), o)

	_, err = ParseOrientation("UUFLBR")
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = ParseOrientation("UDF")
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestSlotOfMissingFace(t *testing.T) {
	o := Orientation{FaceU, FaceU, FaceF, FaceL, FaceB, FaceR}
	_, err := o.SlotOf(FaceD)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

// reachable returns every orientation the mechanism can produce.
func reachable() []Orientation {
	seen := map[Orientation]bool{NewOrientation(): true}
	queue := []Orientation{NewOrientation()}
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]
		for _, tr := range []Transform{Flip, RotateCW, RotateCCW} {
			n := o.Applied(tr)
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	out := make([]Orientation, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	return out
}

func TestReachableOrientations(t *testing.T) {
	// The rotation group of a cube has 24 elements.
	assert.Len(t, reachable(), 24)
}
