package mindcuber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunState is the phase of a full solve.
type RunState int

const (
	StateIdle RunState = iota
	StateWaiting
	StateScanning
	StateResolving
	StateSolving
	StateExecuting
	StateDone
	StateAborted
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateScanning:
		return "scanning"
	case StateResolving:
		return "resolving"
	case StateSolving:
		return "solving"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Report summarizes a full solve. It is returned even when the run fails and
// then holds whatever was completed.
type Report struct {
	State       RunState
	Colors      FaceletColors
	Facelets    string
	Solution    []Move
	Executed    int
	Orientation Orientation
	Started     time.Time
	Ended       time.Time
	Phases      map[RunState]time.Duration
	Err         error
}

// Duration returns the total wall time of the run.
func (rep *Report) Duration() time.Duration {
	return rep.Ended.Sub(rep.Started)
}

// RunFullSolve scans the cube, resolves colors, asks the solver for a move
// list and executes it. There are no retries: any error, or Abort, ends the
// run with every actuator released.
//
// Each run starts from the initial orientation with the abort flag clear.
// Cancel ctx to stop a run that may not have started yet.
func (r *Robot) RunFullSolve(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.running = true
	r.aborting.Store(false)
	r.orient = r.cfg.initialOrient
	r.state = StateIdle
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.running = false
		r.mu.Unlock()
	}()

	rep := &Report{
		Started: time.Now(),
		Phases:  make(map[RunState]time.Duration),
	}

	err := r.run(ctx, rep)
	if err == nil {
		// Leave the flipper clear so the cube can be lifted out.
		err = r.flipperAway(ctx, r.cal.FlipperAwaySpeed)
	}

	rep.Orientation = r.Orientation()
	rep.Ended = time.Now()

	if err != nil {
		if r.checkAbort(ctx) != nil || errors.Is(err, context.Canceled) {
			err = ErrAborted
		}
		rep.State = StateAborted
		rep.Err = err
		if rerr := r.Release(ctx); rerr != nil {
			r.log.Error().Err(rerr).Msg("release after failure")
		}
		r.setState(StateAborted, err)
		return rep, err
	}

	if err := r.Release(ctx); err != nil {
		r.log.Warn().Err(err).Msg("release")
	}
	rep.State = StateDone
	r.setState(StateDone, nil)
	r.log.Info().Int("moves", rep.Executed).Dur("duration", rep.Duration()).Msg("solve complete")
	return rep, nil
}

func (r *Robot) run(ctx context.Context, rep *Report) error {
	if err := r.checkAbort(ctx); err != nil {
		return err
	}

	if r.cfg.home {
		if err := r.Home(ctx); err != nil {
			return err
		}
	}

	if r.cfg.waitForCube {
		err := r.phase(StateWaiting, rep, func() error {
			if err := r.WaitForCube(ctx); err != nil {
				return err
			}
			return r.Settle(ctx)
		})
		if err != nil {
			return err
		}
	}

	err := r.phase(StateScanning, rep, func() error {
		colors, err := r.Scan(ctx)
		rep.Colors = colors
		return err
	})
	if err != nil {
		return err
	}

	err = r.phase(StateResolving, rep, func() error {
		facelets, err := r.resolve(ctx, rep.Colors)
		rep.Facelets = facelets
		return err
	})
	if err != nil {
		return err
	}

	err = r.phase(StateSolving, rep, func() error {
		moves, err := r.solve(ctx, rep.Facelets)
		rep.Solution = moves
		return err
	})
	if err != nil {
		return err
	}

	return r.phase(StateExecuting, rep, func() error {
		n, err := r.ExecuteMoves(ctx, rep.Solution)
		rep.Executed = n
		return err
	})
}

func (r *Robot) phase(s RunState, rep *Report, fn func() error) error {
	r.setState(s, nil)
	start := time.Now()
	err := fn()
	rep.Phases[s] = time.Since(start)
	return err
}

func (r *Robot) resolve(ctx context.Context, colors FaceletColors) (string, error) {
	if r.resolver == nil {
		return "", fmt.Errorf("%w: no resolver configured", ErrResolution)
	}
	facelets, err := r.resolver.Resolve(ctx, colors)
	if err != nil {
		if r.checkAbort(ctx) != nil {
			return "", ErrAborted
		}
		if errors.Is(err, ErrResolution) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrResolution, err)
	}

	facelets = strings.TrimSpace(facelets)
	if len(facelets) != FaceletCount {
		return facelets, fmt.Errorf("%w: got %d facelets, want %d", ErrResolution, len(facelets), FaceletCount)
	}
	r.log.Info().Str("facelets", facelets).Msg("resolved")
	return facelets, nil
}

// ErrorMarker in solver output means the solver rejected the cube.
const ErrorMarker = "ERROR"

func (r *Robot) solve(ctx context.Context, facelets string) ([]Move, error) {
	if r.solver == nil {
		return nil, fmt.Errorf("%w: no solver configured", ErrSolve)
	}
	tokens, err := r.solver.Solve(ctx, facelets)
	if err != nil {
		if r.checkAbort(ctx) != nil {
			return nil, ErrAborted
		}
		if errors.Is(err, ErrSolve) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSolve, err)
	}

	for _, tok := range tokens {
		if strings.Contains(strings.ToUpper(tok), ErrorMarker) {
			return nil, fmt.Errorf("%w: %s", ErrSolve, strings.Join(tokens, " "))
		}
	}

	moves, err := ParseTokens(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolve, err)
	}
	r.log.Info().Int("moves", len(moves)).Str("solution", FormatMoves(moves)).Msg("solved")
	return moves, nil
}

// WaitForCube blocks until the proximity sensor sees a cube for enough
// consecutive reads. Some sensors report their maximum reading when the
// cube sits too close, so that value also counts as present.
func (r *Robot) WaitForCube(ctx context.Context) error {
	r.log.Info().Msg("waiting for cube")
	seen := 0
	for seen < r.cal.ProximityReads {
		if err := r.checkAbort(ctx); err != nil {
			return err
		}
		d, err := r.sensor.ReadProximity(ctx)
		if err != nil {
			if r.checkAbort(ctx) != nil {
				return ErrAborted
			}
			return fmt.Errorf("read proximity: %w", err)
		}
		if d < r.cal.ProximityPresent || d == r.cal.ProximityGlitch {
			seen++
		} else {
			seen = 0
		}
		if err := r.sleep(ctx, r.cal.ProximityInterval); err != nil {
			return err
		}
	}
	r.log.Info().Msg("cube inserted")
	return nil
}
