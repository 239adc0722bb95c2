// Package notation rewrites move sequences into canonical form.
package notation

import "github.com/SeamusWaldron/mindcuber"

// NormalizeTurn normalizes a signed quarter-turn count to the range [-1, 2].
// -3 -> 1, -2 -> 2, -1 -> -1, 0 -> 0, 1 -> 1, 2 -> 2, 3 -> -1
func NormalizeTurn(turn int) int {
	turn = ((turn % 4) + 4) % 4
	if turn == 3 {
		return -1
	}
	return turn
}

// FromSigned builds the move for a signed quarter-turn count. ok is false
// when the turns cancel out.
func FromSigned(face mindcuber.Face, signed int) (m mindcuber.Move, ok bool) {
	switch NormalizeTurn(signed) {
	case 1:
		return mindcuber.Move{Face: face, Turns: 1, Direction: mindcuber.CW}, true
	case -1:
		return mindcuber.Move{Face: face, Turns: 1, Direction: mindcuber.CCW}, true
	case 2:
		return mindcuber.Move{Face: face, Turns: 2, Direction: mindcuber.CW}, true
	}
	return mindcuber.Move{}, false
}

// Simplify merges consecutive turns of the same face, so R R becomes R2 and
// R R' disappears. Merging repeats until no neighbours share a face.
func Simplify(moves []mindcuber.Move) []mindcuber.Move {
	out := make([]mindcuber.Move, 0, len(moves))
	for _, m := range moves {
		if n := len(out); n > 0 && out[n-1].Face == m.Face {
			merged, ok := FromSigned(m.Face, out[n-1].SignedCount()+m.SignedCount())
			out = out[:n-1]
			if ok {
				out = append(out, merged)
			}
			continue
		}
		out = append(out, m)
	}
	return out
}
