package mindcuber

import (
	"fmt"
	"strings"
)

// Physical slots of the mechanism.
const (
	SlotUp    = 0
	SlotDown  = 1
	SlotFront = 2
	SlotLeft  = 3
	SlotBack  = 4
	SlotRight = 5

	// WorkingSlot is where a face must be to be turned by the turntable.
	WorkingSlot = SlotDown
)

// Transform is a slot permutation: applying t yields new[i] = old[t[i]].
type Transform [6]int

// Reorientation transforms of the mechanism.
var (
	Flip      = Transform{2, 4, 1, 3, 0, 5}
	RotateCW  = Transform{0, 1, 5, 2, 3, 4}
	RotateCCW = Transform{0, 1, 3, 4, 5, 2}
	Identity  = Transform{0, 1, 2, 3, 4, 5}
)

// Then returns the transform equivalent to applying t and then u.
func (t Transform) Then(u Transform) Transform {
	var out Transform
	for i := range out {
		out[i] = t[u[i]]
	}
	return out
}

// Orientation records which face label occupies each physical slot.
// Index is the slot; the value is the face currently there.
type Orientation [6]Face

// NewOrientation returns the identity orientation (U D F L B R).
func NewOrientation() Orientation {
	return Orientation{FaceU, FaceD, FaceF, FaceL, FaceB, FaceR}
}

// ParseOrientation parses a six-letter orientation string such as "UDFLBR".
func ParseOrientation(s string) (Orientation, error) {
	var o Orientation
	if len(s) != 6 {
		return o, fmt.Errorf("%w: %q is not six face letters", ErrInvariantViolation, s)
	}
	for i := range o {
		o[i] = Face(strings.ToUpper(s[i : i+1]))
	}
	return o, o.Validate()
}

// Apply mutates o by the transform t.
func (o *Orientation) Apply(t Transform) {
	old := *o
	for i, src := range t {
		o[i] = old[src]
	}
}

// Applied returns a copy of o with t applied.
func (o Orientation) Applied(t Transform) Orientation {
	o.Apply(t)
	return o
}

// SlotOf returns the physical slot currently holding face.
func (o Orientation) SlotOf(face Face) (int, error) {
	for i, f := range o {
		if f == face {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: face %q not in %s", ErrInvariantViolation, face, o)
}

// At returns the face in the given slot.
func (o Orientation) At(slot int) Face {
	return o[slot]
}

// Validate checks that o is a permutation of all six faces.
func (o Orientation) Validate() error {
	seen := make(map[Face]bool, 6)
	for _, f := range o {
		if !f.Valid() || seen[f] {
			return fmt.Errorf("%w: %s", ErrInvariantViolation, o)
		}
		seen[f] = true
	}
	return nil
}

// String renders the faces in slot order, e.g. "UDFLBR".
func (o Orientation) String() string {
	var sb strings.Builder
	for _, f := range o {
		if f == "" {
			sb.WriteByte('?')
			continue
		}
		sb.WriteString(string(f))
	}
	return sb.String()
}
