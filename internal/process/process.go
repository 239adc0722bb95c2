// Package process runs the external solver and color resolver programs.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/config"
)

// ErrNoOutput is returned when a program exits cleanly but prints nothing.
var ErrNoOutput = errors.New("process: no output")

// Program is one configured external command.
type Program struct {
	Command string
	Args    []string
	Timeout time.Duration
	Dir     string
	log     zerolog.Logger
}

func newProgram(c config.Command, log zerolog.Logger) Program {
	return Program{Command: c.Command, Args: c.Args, Timeout: c.Timeout, log: log}
}

// run executes the program with extra trailing arguments and returns its
// trimmed stdout.
func (p Program) run(ctx context.Context, extra ...string) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, p.Args...), extra...)
	cmd := exec.CommandContext(ctx, p.Command, args...)
	cmd.Dir = p.Dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	p.log.Debug().Str("command", p.Command).Dur("elapsed", time.Since(start)).Err(err).Msg("exec")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%s failed: %w: %s", p.Command, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("%s: %w", p.Command, ErrNoOutput)
	}
	return out, nil
}

// Solver runs a kociemba-style solver: the facelet string is the last
// argument and the solution is printed as space separated moves.
type Solver struct {
	Program
}

// NewSolver creates a solver from its command configuration.
func NewSolver(c config.Command, log zerolog.Logger) *Solver {
	return &Solver{Program: newProgram(c, log)}
}

// Solve implements mindcuber.Solver.
func (s *Solver) Solve(ctx context.Context, facelets string) ([]string, error) {
	out, err := s.run(ctx, facelets)
	if err != nil {
		return nil, err
	}

	if strings.Contains(strings.ToUpper(out), mindcuber.ErrorMarker) {
		return nil, fmt.Errorf("%w: %s", mindcuber.ErrSolve, out)
	}
	return strings.Fields(lastLine(out)), nil
}

// Resolver runs a color resolver. The readings are passed as a JSON object
// keyed by 1-based square number, each value an [r, g, b] triple, and the
// program prints the facelet string.
type Resolver struct {
	Program
}

// NewResolver creates a resolver from its command configuration.
func NewResolver(c config.Command, log zerolog.Logger) *Resolver {
	return &Resolver{Program: newProgram(c, log)}
}

// Resolve implements mindcuber.Resolver.
func (r *Resolver) Resolve(ctx context.Context, colors mindcuber.FaceletColors) (string, error) {
	payload, err := EncodeColors(colors)
	if err != nil {
		return "", err
	}

	out, err := r.run(ctx, string(payload))
	if err != nil {
		return "", err
	}

	facelets := lastLine(out)
	if len(facelets) != mindcuber.FaceletCount {
		return "", fmt.Errorf("resolver printed %d characters, want %d", len(facelets), mindcuber.FaceletCount)
	}
	return facelets, nil
}

// EncodeColors renders readings in the resolver's input format.
func EncodeColors(colors mindcuber.FaceletColors) ([]byte, error) {
	if !colors.Complete() {
		return nil, fmt.Errorf("incomplete scan: %d of %d readings", len(colors), mindcuber.FaceletCount)
	}
	squares := make(map[string][3]int, len(colors))
	for i, c := range colors {
		squares[strconv.Itoa(i+1)] = [3]int{c.R, c.G, c.B}
	}
	return json.Marshal(squares)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
