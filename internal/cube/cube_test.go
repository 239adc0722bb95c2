package cube

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
)

func TestNewCubeIsSolved(t *testing.T) {
	c := New()
	assert.True(t, c.IsSolved())
	assert.Equal(t, strings.Repeat("U", 9)+strings.Repeat("R", 9)+strings.Repeat("F", 9)+
		strings.Repeat("D", 9)+strings.Repeat("L", 9)+strings.Repeat("B", 9), c.FaceletString())
}

func TestSingleMoveBreaksSolved(t *testing.T) {
	c := New()
	c.Move(R, 1)
	assert.False(t, c.IsSolved())
}

func TestFourQuartersReturnToSolved(t *testing.T) {
	for _, face := range []Face{U, D, F, B, R, L} {
		c := New()
		for i := 0; i < 4; i++ {
			c.Move(face, 1)
		}
		assert.True(t, c.IsSolved(), "%v x 4\n%s", face, c)
	}
}

func TestHalfTurnTwiceReturnsToSolved(t *testing.T) {
	c := New()
	c.Move(R, 2)
	c.Move(R, 2)
	assert.True(t, c.IsSolved())
}

func TestSexyMoveSixTimes(t *testing.T) {
	// (R U R' U') x 6 = identity
	c := New()
	for i := 0; i < 6; i++ {
		c.Move(R, 1)
		c.Move(U, 1)
		c.Move(R, -1)
		c.Move(U, -1)
	}
	assert.True(t, c.IsSolved(), c.String())
}

func TestCentersNeverMove(t *testing.T) {
	c := New()
	c.ApplyMoves(RandomMoves(rand.New(rand.NewSource(1)), 50))
	for face := U; face <= L; face++ {
		assert.Equal(t, SolvedColor(face), c.Facelets[face][4])
	}
}

func TestApplyMoveAndInverse(t *testing.T) {
	moves, err := mindcuber.ParseMoves("R U' F2 D L' B")
	require.NoError(t, err)

	c := New()
	c.ApplyMoves(moves)
	assert.False(t, c.IsSolved())

	c.ApplyMoves(Inverse(moves))
	assert.True(t, c.IsSolved(), c.String())
}

func TestRandomMovesAvoidRepeats(t *testing.T) {
	moves := RandomMoves(rand.New(rand.NewSource(9)), 40)
	require.Len(t, moves, 40)
	for i := 1; i < len(moves); i++ {
		assert.NotEqual(t, moves[i-1].Face, moves[i].Face)
	}
}

func TestFaceletsCountsNineOfEach(t *testing.T) {
	c := New()
	c.ApplyMoves(RandomMoves(rand.New(rand.NewSource(3)), 25))

	s := c.FaceletString()
	require.Len(t, s, mindcuber.FaceletCount)
	for _, f := range mindcuber.Faces() {
		assert.Equal(t, 9, strings.Count(s, string(f)), "face %s", f)
	}
}

func TestFaceOf(t *testing.T) {
	for _, l := range mindcuber.Faces() {
		f, ok := FaceOf(l)
		require.True(t, ok)
		assert.Equal(t, l, f.Label())
	}
	_, ok := FaceOf("X")
	assert.False(t, ok)
}
