package mindcuber

import (
	"fmt"
	"strings"
)

// Face is a face label in standard cube notation.
type Face string

const (
	FaceU Face = "U" // Up
	FaceD Face = "D" // Down
	FaceF Face = "F" // Front
	FaceL Face = "L" // Left
	FaceB Face = "B" // Back
	FaceR Face = "R" // Right
)

// Faces returns all face labels in slot order (the identity orientation).
func Faces() []Face {
	return []Face{FaceU, FaceD, FaceF, FaceL, FaceB, FaceR}
}

// Valid reports whether f is one of the six face labels.
func (f Face) Valid() bool {
	switch f {
	case FaceU, FaceD, FaceF, FaceL, FaceB, FaceR:
		return true
	}
	return false
}

// Direction is the sense of a face turn, seen from outside the face.
type Direction int

const (
	CW  Direction = 1  // Clockwise
	CCW Direction = -1 // Counter-clockwise
)

// Sign returns +1 for CW and -1 for CCW.
func (d Direction) Sign() int {
	if d == CCW {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	if d == CCW {
		return "ccw"
	}
	return "cw"
}

// Move is a parsed solver instruction.
type Move struct {
	Face      Face
	Turns     int // 1 or 2
	Direction Direction
}

// SignedCount returns turns multiplied by the direction sign.
func (m Move) SignedCount() int {
	return m.Turns * m.Direction.Sign()
}

// Notation returns the standard cube notation string for this move.
// Examples: R, R', R2
func (m Move) Notation() string {
	switch {
	case m.Turns == 2:
		return string(m.Face) + "2"
	case m.Direction == CCW:
		return string(m.Face) + "'"
	}
	return string(m.Face)
}

// Inverse returns the move that undoes m. R2 stays R2.
func (m Move) Inverse() Move {
	inv := m
	if m.Turns == 1 {
		inv.Direction = -m.Direction
	}
	return inv
}

// String returns the notation string (alias for Notation).
func (m Move) String() string {
	return m.Notation()
}

// ParseMove parses a single solver token: X, X' or X2.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return Move{}, fmt.Errorf("%w: empty token", ErrInvalidNotation)
	}

	face := Face(strings.ToUpper(s[:1]))
	if !face.Valid() {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	m := Move{Face: face, Turns: 1, Direction: CW}
	switch s[1:] {
	case "":
	case "'", "`":
		m.Direction = CCW
	case "2", "2'", "'2":
		// Direction is irrelevant for a half turn.
		m.Turns = 2
	default:
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	return m, nil
}

// ParseMoves parses a whitespace-separated move list.
// Unlike a lenient parser, any invalid token fails the whole list.
func ParseMoves(s string) ([]Move, error) {
	return ParseTokens(strings.Fields(s))
}

// ParseTokens parses a list of solver tokens.
func ParseTokens(tokens []string) ([]Move, error) {
	moves := make([]Move, 0, len(tokens))
	for i, tok := range tokens {
		m, err := ParseMove(tok)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// FormatMoves formats a slice of moves as a space-separated notation string.
func FormatMoves(moves []Move) string {
	if len(moves) == 0 {
		return ""
	}

	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.Notation()
	}

	return strings.Join(parts, " ")
}
