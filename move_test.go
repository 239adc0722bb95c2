package mindcuber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	tests := []struct {
		in   string
		want Move
	}{
		{"R", Move{Face: FaceR, Turns: 1, Direction: CW}},
		{"U'", Move{Face: FaceU, Turns: 1, Direction: CCW}},
		{"F`", Move{Face: FaceF, Turns: 1, Direction: CCW}},
		{"D2", Move{Face: FaceD, Turns: 2, Direction: CW}},
		{"B2'", Move{Face: FaceB, Turns: 2, Direction: CW}},
		{"l", Move{Face: FaceL, Turns: 1, Direction: CW}},
		{" R ", Move{Face: FaceR, Turns: 1, Direction: CW}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMove(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMoveInvalid(t *testing.T) {
	for _, in := range []string{"", "X", "R3", "R''", "M", "Rw"} {
		_, err := ParseMove(in)
		assert.ErrorIs(t, err, ErrInvalidNotation, "input %q", in)
	}
}

func TestParseMovesIsStrict(t *testing.T) {
	moves, err := ParseMoves("R U R' U'")
	require.NoError(t, err)
	assert.Len(t, moves, 4)

	_, err = ParseMoves("R U Q U'")
	assert.ErrorIs(t, err, ErrInvalidNotation)
}

func TestFormatMoves(t *testing.T) {
	moves, err := ParseMoves("R U' F2 D")
	require.NoError(t, err)
	assert.Equal(t, "R U' F2 D", FormatMoves(moves))
	assert.Equal(t, "", FormatMoves(nil))
}

func TestMoveInverse(t *testing.T) {
	assert.Equal(t, "R'", Move{Face: FaceR, Turns: 1, Direction: CW}.Inverse().Notation())
	assert.Equal(t, "R", Move{Face: FaceR, Turns: 1, Direction: CCW}.Inverse().Notation())
	assert.Equal(t, "R2", Move{Face: FaceR, Turns: 2, Direction: CW}.Inverse().Notation())
}

func TestSignedCount(t *testing.T) {
	assert.Equal(t, 1, Move{Face: FaceR, Turns: 1, Direction: CW}.SignedCount())
	assert.Equal(t, -1, Move{Face: FaceR, Turns: 1, Direction: CCW}.SignedCount())
	assert.Equal(t, 2, Move{Face: FaceR, Turns: 2, Direction: CW}.SignedCount())
}
