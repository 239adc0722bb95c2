package process

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/config"
)

const solved = "UUUUUUUUURRRRRRRRRFFFFFFFFFDDDDDDDDDLLLLLLLLLBBBBBBBBB"

// script writes an executable shell script and returns its path.
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "prog.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestSolverParsesMoves(t *testing.T) {
	prog := script(t, `echo "solving $1" >&2; echo "R U2 F' "`)
	s := NewSolver(config.Command{Command: prog, Timeout: 5 * time.Second}, zerolog.Nop())

	tokens, err := s.Solve(context.Background(), solved)
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "U2", "F'"}, tokens)
}

func TestSolverPassesFacelets(t *testing.T) {
	prog := script(t, `echo "$2"; echo "$1"`)
	s := NewSolver(config.Command{Command: prog, Args: []string{"--max-depth"}}, zerolog.Nop())

	tokens, err := s.Solve(context.Background(), solved)
	require.NoError(t, err)
	assert.Equal(t, []string{"--max-depth"}, tokens)
}

func TestSolverErrorMarker(t *testing.T) {
	prog := script(t, `echo "Error: Some edges are undefined"`)
	s := NewSolver(config.Command{Command: prog}, zerolog.Nop())

	_, err := s.Solve(context.Background(), solved)
	assert.ErrorIs(t, err, mindcuber.ErrSolve)
}

func TestSolverExitStatus(t *testing.T) {
	prog := script(t, `echo "bad cube" >&2; exit 3`)
	s := NewSolver(config.Command{Command: prog}, zerolog.Nop())

	_, err := s.Solve(context.Background(), solved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad cube")
}

func TestSolverEmptyOutput(t *testing.T) {
	prog := script(t, `true`)
	s := NewSolver(config.Command{Command: prog}, zerolog.Nop())

	_, err := s.Solve(context.Background(), solved)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestSolverTimeout(t *testing.T) {
	prog := script(t, `exec sleep 5`)
	s := NewSolver(config.Command{Command: prog, Timeout: 50 * time.Millisecond}, zerolog.Nop())

	_, err := s.Solve(context.Background(), solved)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func testColors() mindcuber.FaceletColors {
	colors := mindcuber.FaceletColors{}
	for i := 0; i < mindcuber.FaceletCount; i++ {
		colors[i] = mindcuber.RGB{R: i, G: 2 * i, B: 3}
	}
	return colors
}

func TestEncodeColors(t *testing.T) {
	data, err := EncodeColors(testColors())
	require.NoError(t, err)

	var squares map[string][3]int
	require.NoError(t, json.Unmarshal(data, &squares))
	assert.Len(t, squares, mindcuber.FaceletCount)
	assert.Equal(t, [3]int{0, 0, 3}, squares["1"])
	assert.Equal(t, [3]int{53, 106, 3}, squares["54"])

	partial := testColors()
	delete(partial, 10)
	_, err = EncodeColors(partial)
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "input.json")
	prog := script(t, `printf '%s' "$2" > `+dump+`; echo "resolving"; echo `+solved)
	r := NewResolver(config.Command{Command: prog, Args: []string{"--rgb"}}, zerolog.Nop())

	facelets, err := r.Resolve(context.Background(), testColors())
	require.NoError(t, err)
	assert.Equal(t, solved, facelets)

	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	var squares map[string][3]int
	require.NoError(t, json.Unmarshal(data, &squares))
	assert.Len(t, squares, mindcuber.FaceletCount)
}

func TestResolverBadLength(t *testing.T) {
	prog := script(t, `echo UUU`)
	r := NewResolver(config.Command{Command: prog}, zerolog.Nop())

	_, err := r.Resolve(context.Background(), testColors())
	assert.Error(t, err)
}
