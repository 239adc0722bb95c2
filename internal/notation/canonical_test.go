package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
)

func TestNormalizeTurn(t *testing.T) {
	for in, want := range map[int]int{-3: 1, -2: 2, -1: -1, 0: 0, 1: 1, 2: 2, 3: -1, 4: 0, 5: 1} {
		assert.Equal(t, want, NormalizeTurn(in), "turn %d", in)
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"R U F", "R U F"},
		{"R R", "R2"},
		{"R R'", ""},
		{"R2 R", "R'"},
		{"U R R' U", "U2"},
		{"F F F F", ""},
		{"L' L' L'", "L"},
		{"R L R", "R L R"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			moves, err := mindcuber.ParseMoves(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mindcuber.FormatMoves(Simplify(moves)))
		})
	}
}
