// Package sim provides a deterministic in-memory robot. It implements the
// actuator and sensor interfaces over a virtual cube and tracks the cube's
// orientation independently of the engine, so a wrong plan shows up as a
// cube that does not end solved.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/cube"
)

// ErrJammed is returned when the mechanism would physically bind, for example
// when the flipper is lifted while the down layer is misaligned.
var ErrJammed = errors.New("sim: cube jammed")

// Palette is the raw reading returned for each cube color.
var Palette = map[cube.Color]mindcuber.RGB{
	cube.White:  {R: 235, G: 235, B: 235},
	cube.Yellow: {R: 230, G: 220, B: 40},
	cube.Green:  {R: 30, G: 160, B: 70},
	cube.Blue:   {R: 20, G: 70, B: 180},
	cube.Red:    {R: 190, G: 25, B: 40},
	cube.Orange: {R: 240, G: 110, B: 20},
}

// Option configures a Rig.
type Option func(*Rig)

// WithRunStep sets how far a non-blocking run advances per position poll.
func WithRunStep(step int) Option {
	return func(r *Rig) {
		r.runStep = step
	}
}

// WithScramble applies n random moves from a seeded source before the run.
func WithScramble(seed int64, n int) Option {
	return func(r *Rig) {
		moves := cube.RandomMoves(rand.New(rand.NewSource(seed)), n)
		r.scramble(moves)
	}
}

// WithMoves applies moves to the virtual cube before the run.
func WithMoves(moves []mindcuber.Move) Option {
	return func(r *Rig) {
		r.scramble(moves)
	}
}

// WithProximity scripts proximity readings; the last value repeats.
func WithProximity(readings ...int) Option {
	return func(r *Rig) {
		r.proximity = readings
	}
}

// OnMotion registers a hook called before every motion command. Tests use it
// to abort or fail a run at a precise point.
func OnMotion(fn func(axis mindcuber.Axis, target int)) Option {
	return func(r *Rig) {
		r.onMotion = fn
	}
}

type axisState struct {
	pos     int
	target  int
	start   int
	running bool
	stop    mindcuber.StopMode
}

// Rig is a simulated mechanism. It is safe for concurrent use.
type Rig struct {
	mu sync.Mutex

	cal     mindcuber.Calibration
	runStep int

	axes   map[mindcuber.Axis]*axisState
	cube   *cube.Cube
	orient mindcuber.Orientation

	history []mindcuber.Move // every face turn since solved
	turns   []mindcuber.Move // face turns performed by the mechanism

	pulled bool
	layer  int // down layer displacement while held

	readings  int
	proximity []int
	proxIdx   int

	faults   map[mindcuber.Axis]error
	onMotion func(axis mindcuber.Axis, target int)

	flips     int
	rotations int
}

// New creates a rig with a solved cube in the identity orientation.
func New(cal mindcuber.Calibration, opts ...Option) *Rig {
	r := &Rig{
		cal:     cal,
		runStep: 40,
		axes:    make(map[mindcuber.Axis]*axisState),
		cube:    cube.New(),
		orient:  mindcuber.NewOrientation(),
		faults:  make(map[mindcuber.Axis]error),
	}
	for _, a := range mindcuber.Axes() {
		r.axes[a] = &axisState{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rig) scramble(moves []mindcuber.Move) {
	r.cube.ApplyMoves(moves)
	r.history = append(r.history, moves...)
}

// Fail makes the next command on axis return err.
func (r *Rig) Fail(axis mindcuber.Axis, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[axis] = err
}

// Solved reports whether the virtual cube is solved.
func (r *Rig) Solved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cube.IsSolved()
}

// Cube returns a copy of the virtual cube.
func (r *Rig) Cube() *cube.Cube {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cube.Clone()
}

// Orientation returns the physically tracked orientation.
func (r *Rig) Orientation() mindcuber.Orientation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orient
}

// Reinsert models lifting the cube out and putting it back with its U face
// up and F face to the front. The cube state is kept.
func (r *Rig) Reinsert() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orient = mindcuber.NewOrientation()
	r.pulled = false
	r.layer = 0
}

// Turns returns the face turns the mechanism performed.
func (r *Rig) Turns() []mindcuber.Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mindcuber.Move(nil), r.turns...)
}

// Counts returns how many flips and whole-cube quarter rotations occurred.
func (r *Rig) Counts() (flips, rotations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flips, r.rotations
}

// Readings returns how many colors have been read.
func (r *Rig) Readings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readings
}

func (r *Rig) takeFault(axis mindcuber.Axis) error {
	if err := r.faults[axis]; err != nil {
		delete(r.faults, axis)
		return err
	}
	return nil
}

func (r *Rig) precheck(ctx context.Context, axis mindcuber.Axis, target int) error {
	if hook := r.onMotion; hook != nil {
		r.mu.Unlock()
		hook(axis, target)
		r.mu.Lock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.takeFault(axis)
}

// MoveTo completes instantly.
func (r *Rig) MoveTo(ctx context.Context, axis mindcuber.Axis, position, speed int, hold bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.precheck(ctx, axis, position); err != nil {
		return err
	}
	if speed == 0 {
		return fmt.Errorf("sim: %s: zero speed", axis)
	}

	st := r.axes[axis]
	from := st.pos
	st.pos, st.target, st.running = position, position, false
	return r.moved(axis, from, position)
}

// RunTo starts a motion that advances by the run step on every Position call.
func (r *Rig) RunTo(ctx context.Context, axis mindcuber.Axis, position, speed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.precheck(ctx, axis, position); err != nil {
		return err
	}
	st := r.axes[axis]
	st.start, st.target, st.running = st.pos, position, st.pos != position
	return nil
}

func (r *Rig) Position(ctx context.Context, axis mindcuber.Axis) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFault(axis); err != nil {
		return 0, err
	}
	st := r.axes[axis]
	if !st.running {
		return st.pos, nil
	}

	switch {
	case st.target > st.pos:
		st.pos = min(st.pos+r.runStep, st.target)
	case st.target < st.pos:
		st.pos = max(st.pos-r.runStep, st.target)
	}
	if st.pos == st.target {
		st.running = false
		if err := r.moved(axis, st.start, st.pos); err != nil {
			return st.pos, err
		}
	}
	return st.pos, nil
}

func (r *Rig) Running(ctx context.Context, axis mindcuber.Axis) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.axes[axis].running, r.takeFault(axis)
}

func (r *Rig) Stop(ctx context.Context, axis mindcuber.Axis, mode mindcuber.StopMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.axes[axis]
	st.stop = mode
	if !st.running {
		return nil
	}
	st.running = false
	st.target = st.pos
	return r.moved(axis, st.start, st.pos)
}

// LastStop returns the mode of the most recent Stop on axis.
func (r *Rig) LastStop(axis mindcuber.Axis) mindcuber.StopMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.axes[axis].stop
}

func (r *Rig) ResetPosition(ctx context.Context, axis mindcuber.Axis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFault(axis); err != nil {
		return err
	}
	st := r.axes[axis]
	st.pos, st.target, st.start, st.running = 0, 0, 0, false
	return nil
}

// Home zeroes axis as if it had been driven against its end stop.
func (r *Rig) Home(ctx context.Context, axis mindcuber.Axis, speed int) error {
	return r.ResetPosition(ctx, axis)
}

// moved updates the virtual cube after a completed motion. Caller holds mu.
func (r *Rig) moved(axis mindcuber.Axis, from, to int) error {
	switch axis {
	case mindcuber.AxisFlipper:
		return r.flipperMoved(to)
	case mindcuber.AxisTurntable:
		return r.turntableMoved(to - from)
	}
	return nil
}

func (r *Rig) holding() bool {
	return r.axes[mindcuber.AxisFlipper].pos > r.cal.FlipperClearance
}

func (r *Rig) flipperMoved(to int) error {
	tol := r.cal.FlipperHoldTolerance

	switch {
	case to >= r.cal.FlipperPull-tol:
		r.pulled = true
	case r.pulled && to > r.cal.FlipperHold-tol && to < r.cal.FlipperHold+tol:
		// Pulled back and pushed forward: the cube tipped over.
		r.pulled = false
		r.orient.Apply(mindcuber.Flip)
		r.flips++
	}

	if to <= r.cal.FlipperClearance {
		r.pulled = false
		if r.layer != 0 {
			return fmt.Errorf("%w: flipper released with down layer %d off", ErrJammed, r.layer)
		}
	}
	return nil
}

func (r *Rig) turntableMoved(delta int) error {
	q := r.cal.QuarterTurn
	if delta == 0 {
		return nil
	}

	if r.holding() {
		r.layer += delta
		if r.layer%q != 0 {
			return nil
		}
		face := r.orient.At(mindcuber.WorkingSlot)
		signed := (r.layer / q) * r.cal.FaceTurnSense
		r.layer = 0

		m, ok := quarterMove(face, signed)
		if ok {
			r.cube.ApplyMove(m)
			r.history = append(r.history, m)
			r.turns = append(r.turns, m)
		}
		return nil
	}

	if delta%q != 0 {
		return fmt.Errorf("%w: turntable stopped %d units off a quarter", ErrJammed, delta%q)
	}
	t := mindcuber.RotateCW
	n := delta / q
	if n < 0 {
		t, n = mindcuber.RotateCCW, -n
	}
	for i := 0; i < n; i++ {
		r.orient.Apply(t)
		r.rotations++
	}
	return nil
}

// quarterMove converts a signed quarter count into a move.
func quarterMove(face mindcuber.Face, signed int) (mindcuber.Move, bool) {
	switch ((signed % 4) + 4) % 4 {
	case 1:
		return mindcuber.Move{Face: face, Turns: 1, Direction: mindcuber.CW}, true
	case 2:
		return mindcuber.Move{Face: face, Turns: 2, Direction: mindcuber.CW}, true
	case 3:
		return mindcuber.Move{Face: face, Turns: 1, Direction: mindcuber.CCW}, true
	}
	return mindcuber.Move{}, false
}

// ReadColor returns the color under the sensor. The sensor looks at the face
// in the up slot; the square follows the scan order.
func (r *Rig) ReadColor(ctx context.Context) (mindcuber.RGB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return mindcuber.RGB{}, err
	}
	_, square := mindcuber.FaceletFace(mindcuber.ScanOrder[r.readings%mindcuber.FaceletCount])
	face := r.orient.At(mindcuber.SlotUp)
	r.readings++
	return Palette[r.cube.ColorAt(face, square)], nil
}

func (r *Rig) ReadProximity(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(r.proximity) == 0 {
		return 10, nil
	}
	d := r.proximity[min(r.proxIdx, len(r.proximity)-1)]
	r.proxIdx++
	return d, nil
}

// Resolver returns a resolver that maps palette readings back to face labels
// and emits a facelet string.
func (r *Rig) Resolver() mindcuber.Resolver {
	return mindcuber.ResolverFunc(func(ctx context.Context, colors mindcuber.FaceletColors) (string, error) {
		return ResolvePalette(colors)
	})
}

// ResolvePalette labels each facelet with the face whose center reading
// matches it exactly, then reorders the result into facelet string order.
func ResolvePalette(colors mindcuber.FaceletColors) (string, error) {
	if !colors.Complete() {
		return "", fmt.Errorf("%w: incomplete readings", mindcuber.ErrResolution)
	}

	centers := make(map[mindcuber.RGB]mindcuber.Face, 6)
	for b, face := range mindcuber.ScanLayout {
		centers[colors[b*9+4]] = face
	}
	if len(centers) != 6 {
		return "", fmt.Errorf("%w: centers are not six distinct colors", mindcuber.ErrResolution)
	}

	var sb strings.Builder
	for _, face := range []mindcuber.Face{mindcuber.FaceU, mindcuber.FaceR, mindcuber.FaceF, mindcuber.FaceD, mindcuber.FaceL, mindcuber.FaceB} {
		block := layoutBlock(face)
		for sq := 0; sq < 9; sq++ {
			label, ok := centers[colors[block*9+sq]]
			if !ok {
				return "", fmt.Errorf("%w: facelet %d %s matches no center", mindcuber.ErrResolution, block*9+sq, colors[block*9+sq])
			}
			sb.WriteString(string(label))
		}
	}
	return sb.String(), nil
}

func layoutBlock(face mindcuber.Face) int {
	for i, f := range mindcuber.ScanLayout {
		if f == face {
			return i
		}
	}
	return -1
}

// Solver returns a solver that checks the facelet string against the virtual
// cube and answers with the inverse of every turn applied so far.
func (r *Rig) Solver() mindcuber.Solver {
	return mindcuber.SolverFunc(func(ctx context.Context, facelets string) ([]string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if want := r.cube.FaceletString(); facelets != want {
			return nil, fmt.Errorf("sim: facelets %q do not match cube %q", facelets, want)
		}
		inv := cube.Inverse(r.history)
		tokens := make([]string, len(inv))
		for i, m := range inv {
			tokens[i] = m.Notation()
		}
		return tokens, nil
	})
}
