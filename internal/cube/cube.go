// Package cube provides a 3x3 Rubik's cube model used by the simulator to
// stand in for the physical cube.
package cube

import (
	"math/rand"
	"strings"

	"github.com/SeamusWaldron/mindcuber"
)

// Color represents a face color.
type Color byte

const (
	White  Color = 0 // Up face when solved
	Yellow Color = 1 // Down face when solved
	Green  Color = 2 // Front face when solved
	Blue   Color = 3 // Back face when solved
	Red    Color = 4 // Right face when solved
	Orange Color = 5 // Left face when solved
)

func (c Color) String() string {
	switch c {
	case White:
		return "W"
	case Yellow:
		return "Y"
	case Green:
		return "G"
	case Blue:
		return "B"
	case Red:
		return "R"
	case Orange:
		return "O"
	default:
		return "?"
	}
}

// Face indexes Cube.Facelets.
type Face int

const (
	U Face = 0 // Up (White)
	D Face = 1 // Down (Yellow)
	F Face = 2 // Front (Green)
	B Face = 3 // Back (Blue)
	R Face = 4 // Right (Red)
	L Face = 5 // Left (Orange)
)

var labels = [6]mindcuber.Face{mindcuber.FaceU, mindcuber.FaceD, mindcuber.FaceF, mindcuber.FaceB, mindcuber.FaceR, mindcuber.FaceL}

// Label returns the notation letter of f.
func (f Face) Label() mindcuber.Face {
	if f < 0 || int(f) >= len(labels) {
		return "?"
	}
	return labels[f]
}

func (f Face) String() string {
	return string(f.Label())
}

// FaceOf converts a notation letter to a Face. ok is false for unknown
// letters.
func FaceOf(l mindcuber.Face) (f Face, ok bool) {
	for i, lbl := range labels {
		if lbl == l {
			return Face(i), true
		}
	}
	return U, false
}

// SolvedColor returns the color of f when the cube is solved. Face and
// color values share the same numbering.
func SolvedColor(f Face) Color {
	return Color(f)
}

// Cube represents a 3x3 Rubik's cube.
// Each face has 9 facelets indexed as:
//
//	0 1 2
//	3 4 5
//	6 7 8
//
// The center (index 4) defines the face color and never moves.
type Cube struct {
	// Facelets[face][position] = color
	Facelets [6][9]Color
}

// New creates a solved cube.
func New() *Cube {
	c := &Cube{}
	for face := U; face <= L; face++ {
		for i := range c.Facelets[face] {
			c.Facelets[face][i] = SolvedColor(face)
		}
	}
	return c
}

// Clone creates a deep copy of the cube.
func (c *Cube) Clone() *Cube {
	clone := *c
	return &clone
}

// IsSolved returns true if every face shows a single color.
func (c *Cube) IsSolved() bool {
	for face := U; face <= L; face++ {
		for _, col := range c.Facelets[face] {
			if col != SolvedColor(face) {
				return false
			}
		}
	}
	return true
}

// ColorAt returns the color of square (0..8) on the face labelled l.
func (c *Cube) ColorAt(l mindcuber.Face, square int) Color {
	f, _ := FaceOf(l)
	return c.Facelets[f][square]
}

// strip is three facelets along one side of a turning layer.
type strip struct {
	face Face
	idx  [3]int
}

// rings lists, per face, the four adjacent strips in the order they move
// during a clockwise turn: strip 0 goes to strip 1, 1 to 2, and so on.
var rings = [6][4]strip{
	U: {{F, [3]int{0, 1, 2}}, {L, [3]int{0, 1, 2}}, {B, [3]int{0, 1, 2}}, {R, [3]int{0, 1, 2}}},
	D: {{F, [3]int{6, 7, 8}}, {R, [3]int{6, 7, 8}}, {B, [3]int{6, 7, 8}}, {L, [3]int{6, 7, 8}}},
	F: {{U, [3]int{6, 7, 8}}, {R, [3]int{0, 3, 6}}, {D, [3]int{2, 1, 0}}, {L, [3]int{8, 5, 2}}},
	B: {{U, [3]int{2, 1, 0}}, {L, [3]int{0, 3, 6}}, {D, [3]int{6, 7, 8}}, {R, [3]int{8, 5, 2}}},
	R: {{U, [3]int{2, 5, 8}}, {B, [3]int{6, 3, 0}}, {D, [3]int{2, 5, 8}}, {F, [3]int{2, 5, 8}}},
	L: {{U, [3]int{0, 3, 6}}, {F, [3]int{0, 3, 6}}, {D, [3]int{0, 3, 6}}, {B, [3]int{8, 5, 2}}},
}

// Move applies a face turn.
// turn: 1 = CW, -1 = CCW, 2 = 180 degrees
func (c *Cube) Move(face Face, turn int) {
	n := ((turn % 4) + 4) % 4
	for i := 0; i < n; i++ {
		c.quarter(face)
	}
}

// quarter turns face 90 degrees clockwise.
func (c *Cube) quarter(face Face) {
	f := &c.Facelets[face]
	// Corners 0->2->8->6, edges 1->5->7->3.
	f[0], f[2], f[8], f[6] = f[6], f[0], f[2], f[8]
	f[1], f[5], f[7], f[3] = f[3], f[1], f[5], f[7]

	ring := rings[face]
	var saved [3]Color
	for k, i := range ring[3].idx {
		saved[k] = c.Facelets[ring[3].face][i]
	}
	for s := 3; s > 0; s-- {
		dst, src := ring[s], ring[s-1]
		for k := range dst.idx {
			c.Facelets[dst.face][dst.idx[k]] = c.Facelets[src.face][src.idx[k]]
		}
	}
	for k, i := range ring[0].idx {
		c.Facelets[ring[0].face][i] = saved[k]
	}
}

// ApplyMove applies a parsed move to the cube.
func (c *Cube) ApplyMove(m mindcuber.Move) {
	f, ok := FaceOf(m.Face)
	if !ok {
		return
	}
	if m.Turns == 2 {
		c.Move(f, 2)
		return
	}
	c.Move(f, m.Direction.Sign())
}

// ApplyMoves applies a sequence of moves to the cube.
func (c *Cube) ApplyMoves(moves []mindcuber.Move) {
	for _, m := range moves {
		c.ApplyMove(m)
	}
}

// kociembaOrder is the face order of a facelet string.
var kociembaOrder = [6]Face{U, R, F, D, L, B}

// FaceletString returns the 54-character facelet string (faces URFDLB, each
// square labelled with the face whose center shares its color).
func (c *Cube) FaceletString() string {
	var sb strings.Builder
	sb.Grow(mindcuber.FaceletCount)
	for _, face := range kociembaOrder {
		for _, col := range c.Facelets[face] {
			sb.WriteString(string(Face(col).Label()))
		}
	}
	return sb.String()
}

// RandomMoves returns n random moves, never turning the same face twice in a
// row.
func RandomMoves(rng *rand.Rand, n int) []mindcuber.Move {
	moves := make([]mindcuber.Move, 0, n)
	last := Face(-1)
	for len(moves) < n {
		f := Face(rng.Intn(6))
		if f == last {
			continue
		}
		last = f

		m := mindcuber.Move{Face: f.Label(), Turns: 1, Direction: mindcuber.CW}
		switch rng.Intn(3) {
		case 1:
			m.Direction = mindcuber.CCW
		case 2:
			m.Turns = 2
		}
		moves = append(moves, m)
	}
	return moves
}

// Inverse returns the moves that undo moves.
func Inverse(moves []mindcuber.Move) []mindcuber.Move {
	inv := make([]mindcuber.Move, len(moves))
	for i, m := range moves {
		inv[len(moves)-1-i] = m.Inverse()
	}
	return inv
}

// String returns a text representation of the cube.
func (c *Cube) String() string {
	var sb strings.Builder

	row := func(face Face, r int) {
		for col := 0; col < 3; col++ {
			sb.WriteString(c.Facelets[face][r*3+col].String())
			sb.WriteByte(' ')
		}
	}

	// U face (indented)
	for r := 0; r < 3; r++ {
		sb.WriteString("      ")
		row(U, r)
		sb.WriteByte('\n')
	}

	// L, F, R, B faces (side by side)
	for r := 0; r < 3; r++ {
		for _, face := range []Face{L, F, R, B} {
			row(face, r)
		}
		sb.WriteByte('\n')
	}

	// D face (indented)
	for r := 0; r < 3; r++ {
		sb.WriteString("      ")
		row(D, r)
		sb.WriteByte('\n')
	}

	return sb.String()
}
