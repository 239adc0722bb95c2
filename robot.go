package mindcuber

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// StateEvent reports a run state transition.
type StateEvent struct {
	State RunState
	Prev  RunState
	Err   error
	Time  time.Time
}

// PrimitiveEvent reports a completed reorientation primitive.
type PrimitiveEvent struct {
	Action      Action
	Orientation Orientation
	Duration    time.Duration
}

// MoveEvent reports an executed solver move.
type MoveEvent struct {
	Index       int // zero-based
	Total       int
	Move        Move
	Plan        Plan // reorientation that preceded the turn
	Target      int  // final turntable position
	Orientation Orientation
	Duration    time.Duration
}

// ReadingEvent reports one recorded color reading.
type ReadingEvent struct {
	Face  int // 1..6
	Step  int // 0..53
	Index int // facelet index, ScanOrder[Step]
	Color RGB
}

// Robot drives one cube-solving mechanism and tracks the cube orientation.
// A Robot is not safe for concurrent motion; Abort, State and Orientation may
// be called from any goroutine.
type Robot struct {
	act      Actuator
	sensor   Sensor
	resolver Resolver
	solver   Solver
	cfg      *config
	cal      Calibration
	log      zerolog.Logger

	mu      sync.RWMutex
	orient  Orientation
	state   RunState
	cancel  context.CancelFunc
	running bool

	aborting atomic.Bool
}

// New creates a Robot. The resolver and solver may be nil when only scanning
// or executing moves directly.
func New(act Actuator, sensor Sensor, resolver Resolver, solver Solver, opts ...Option) (*Robot, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.calibration.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.initialOrient.Validate(); err != nil {
		return nil, err
	}

	return &Robot{
		act:      act,
		sensor:   sensor,
		resolver: resolver,
		solver:   solver,
		cfg:      cfg,
		cal:      cfg.calibration,
		log:      cfg.logger,
		orient:   cfg.initialOrient,
		state:    StateIdle,
	}, nil
}

// Calibration returns the calibration in use.
func (r *Robot) Calibration() Calibration {
	return r.cal
}

// Orientation returns a snapshot of the tracked orientation.
func (r *Robot) Orientation() Orientation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orient
}

// State returns the current run state.
func (r *Robot) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Abort sets the shared abort flag. Motion stops at the next suspension
// point; a running RunFullSolve returns ErrAborted.
func (r *Robot) Abort() {
	r.aborting.Store(true)

	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Aborted reports whether the abort flag is set.
func (r *Robot) Aborted() bool {
	return r.aborting.Load()
}

// Reset clears the abort flag and restores the initial orientation. It must
// not be called while a solve is running.
func (r *Robot) Reset() {
	r.aborting.Store(false)
	r.mu.Lock()
	r.orient = r.cfg.initialOrient
	r.state = StateIdle
	r.mu.Unlock()
}

// checkAbort returns ErrAborted when the flag is set or ctx is done.
func (r *Robot) checkAbort(ctx context.Context) error {
	if r.aborting.Load() || ctx.Err() != nil {
		return ErrAborted
	}
	return nil
}

func (r *Robot) apply(t Transform) Orientation {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orient.Apply(t)
	return r.orient
}

func (r *Robot) setState(s RunState, err error) {
	r.mu.Lock()
	prev := r.state
	r.state = s
	r.mu.Unlock()

	if prev == s {
		return
	}

	ev := StateEvent{State: s, Prev: prev, Err: err, Time: time.Now()}
	r.log.Info().Stringer("from", prev).Stringer("to", s).AnErr("err", err).Msg("run state")
	for _, cb := range r.cfg.onState {
		cb(ev)
	}
}

func (r *Robot) emitPrimitive(a Action, o Orientation, d time.Duration) {
	for _, cb := range r.cfg.onPrimitive {
		cb(PrimitiveEvent{Action: a, Orientation: o, Duration: d})
	}
}

func (r *Robot) emitMove(ev MoveEvent) {
	for _, cb := range r.cfg.onMove {
		cb(ev)
	}
}

func (r *Robot) emitReading(ev ReadingEvent) {
	for _, cb := range r.cfg.onReading {
		cb(ev)
	}
}

// actuatorErr converts an actuator error into ErrAborted when the failure
// was caused by cancellation, otherwise into an ActuatorFault.
func (r *Robot) actuatorErr(ctx context.Context, axis Axis, op string, err error) error {
	if err == nil {
		return nil
	}
	if r.checkAbort(ctx) != nil || errors.Is(err, context.Canceled) {
		return ErrAborted
	}
	return fault(axis, op, err)
}

func (r *Robot) moveTo(ctx context.Context, axis Axis, position, speed int, hold bool) error {
	r.log.Debug().Str("axis", string(axis)).Int("position", position).Int("speed", speed).Msg("move")
	return r.actuatorErr(ctx, axis, "move_to", r.act.MoveTo(ctx, axis, position, speed, hold))
}

func (r *Robot) position(ctx context.Context, axis Axis) (int, error) {
	pos, err := r.act.Position(ctx, axis)
	return pos, r.actuatorErr(ctx, axis, "position", err)
}

// waitStopped polls until axis reports it is no longer running.
func (r *Robot) waitStopped(ctx context.Context, axis Axis) error {
	for {
		running, err := r.act.Running(ctx, axis)
		if err != nil {
			return r.actuatorErr(ctx, axis, "running", err)
		}
		if !running {
			return nil
		}
		if err := r.sleep(ctx, r.cal.PollInterval); err != nil {
			return err
		}
	}
}

// sleep waits for d or until the run is aborted.
func (r *Robot) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return r.checkAbort(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ErrAborted
	case <-t.C:
		return r.checkAbort(ctx)
	}
}

// Release stops every axis without holding. It ignores cancellation so it can
// run during shutdown, and returns the first failure after trying all axes.
func (r *Robot) Release(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var first error
	for _, axis := range Axes() {
		if err := r.act.Stop(ctx, axis, Coast); err != nil {
			r.log.Warn().Err(err).Str("axis", string(axis)).Msg("release")
			if first == nil {
				first = fault(axis, "stop", err)
			}
		}
	}
	return first
}
