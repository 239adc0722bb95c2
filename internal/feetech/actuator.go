// Package feetech drives the mechanism with Feetech STS bus servos, one
// servo per axis.
package feetech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/rs/zerolog"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/config"
)

const (
	// Resolution is the number of encoder steps per servo revolution.
	Resolution = 4096
	// goalLimit bounds the goal register in multi-turn mode.
	goalLimit = 30719
	// speedLimit is the largest goal speed in steps per second. A speed of
	// zero means full speed to the servo, so commanded speeds start at 1.
	speedLimit = 0x7fff

	defaultPoll  = 10 * time.Millisecond
	defaultSlack = 500 * time.Millisecond
)

var (
	// ErrStalled is returned when a servo does not reach its goal in time.
	ErrStalled = errors.New("feetech: servo did not reach target")
	// ErrRange is returned for goals the servo cannot be commanded to.
	ErrRange = errors.New("feetech: target out of servo range")
	// ErrUnknownAxis is returned for axes without a configured servo.
	ErrUnknownAxis = errors.New("feetech: unknown axis")
)

// servo is the per-axis view of the bus the actuator needs.
type servo interface {
	Position(ctx context.Context) (int, error)
	// SetPosition commands a goal at speed steps per second; zero keeps the
	// servo's own speed.
	SetPosition(ctx context.Context, ticks, speed int) error
	SetTorque(ctx context.Context, on bool) error
}

// groupServo addresses one servo through a single-member group.
type groupServo struct {
	group *feetech.ServoGroup
	id    int
}

func (s groupServo) Position(ctx context.Context) (int, error) {
	pos, err := s.group.Positions(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := pos[s.id]
	if !ok {
		return 0, fmt.Errorf("servo %d did not answer", s.id)
	}
	return raw, nil
}

func (s groupServo) SetPosition(ctx context.Context, ticks, speed int) error {
	if speed <= 0 {
		return s.group.SetPositions(ctx, feetech.PositionMap{s.id: ticks})
	}
	return s.group.SetPositionsWithSpeed(ctx,
		feetech.PositionMap{s.id: ticks},
		feetech.PositionMap{s.id: speed},
	)
}

func (s groupServo) SetTorque(ctx context.Context, on bool) error {
	if on {
		return s.group.EnableAll(ctx)
	}
	return s.group.DisableAll(ctx)
}

// motion is a background RunTo.
type motion struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// joint tracks one axis. Encoder readings wrap every revolution; ticks is
// the unwrapped count and zero the tick count that reads as position 0.
type joint struct {
	name  mindcuber.Axis
	servo servo
	home  *int

	mu      sync.Mutex
	primed  bool
	lastRaw int
	ticks   int
	zero    int
	run     *motion
}

// Actuator implements mindcuber.Actuator and mindcuber.Homer on a Feetech bus.
type Actuator struct {
	bus    *feetech.Bus
	joints map[mindcuber.Axis]*joint
	tpd    float64
	tol    int
	poll   time.Duration
	slack  time.Duration
	log    zerolog.Logger
}

var (
	_ mindcuber.Actuator = (*Actuator)(nil)
	_ mindcuber.Homer    = (*Actuator)(nil)
)

// Open connects to the bus described by cfg.
func Open(cfg config.Feetech, log zerolog.Logger) (*Actuator, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	servos := map[mindcuber.Axis]servo{}
	for axis, id := range axisIDs(cfg) {
		servos[axis] = groupServo{group: feetech.NewServoGroupByIDs(bus, id), id: id}
	}

	a := newActuator(servos, cfg, log)
	a.bus = bus
	return a, nil
}

func axisIDs(cfg config.Feetech) map[mindcuber.Axis]int {
	return map[mindcuber.Axis]int{
		mindcuber.AxisFlipper:   cfg.Flipper,
		mindcuber.AxisTurntable: cfg.Turntable,
		mindcuber.AxisColorArm:  cfg.ColorArm,
	}
}

func newActuator(servos map[mindcuber.Axis]servo, cfg config.Feetech, log zerolog.Logger) *Actuator {
	a := &Actuator{
		joints: make(map[mindcuber.Axis]*joint, len(servos)),
		tpd:    cfg.TicksPerDegree,
		tol:    cfg.Tolerance,
		poll:   defaultPoll,
		slack:  defaultSlack,
		log:    log,
	}
	for axis, s := range servos {
		j := &joint{name: axis, servo: s}
		if h, ok := cfg.Home[string(axis)]; ok {
			j.home = &h
		}
		a.joints[axis] = j
	}
	return a
}

// Close releases torque on every servo and closes the bus.
func (a *Actuator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var errs []error
	for _, j := range a.joints {
		a.cancelRun(j)
		errs = append(errs, j.servo.SetTorque(ctx, false))
	}
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	return errors.Join(errs...)
}

func (a *Actuator) joint(axis mindcuber.Axis) (*joint, error) {
	j, ok := a.joints[axis]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAxis, axis)
	}
	return j, nil
}

// read samples the encoder and returns the unwrapped tick count.
func (a *Actuator) read(ctx context.Context, j *joint) (int, error) {
	raw, err := j.servo.Position(ctx)
	if err != nil {
		return 0, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.primed {
		j.ticks = raw
		j.primed = true
	} else {
		d := raw - j.lastRaw
		switch {
		case d > Resolution/2:
			d -= Resolution
		case d < -Resolution/2:
			d += Resolution
		}
		j.ticks += d
	}
	j.lastRaw = raw
	return j.ticks, nil
}

func (a *Actuator) toDegrees(j *joint, ticks int) int {
	j.mu.Lock()
	zero := j.zero
	j.mu.Unlock()
	return int(math.Round(float64(ticks-zero) / a.tpd))
}

func (a *Actuator) toTicks(j *joint, degrees int) int {
	j.mu.Lock()
	zero := j.zero
	j.mu.Unlock()
	return zero + int(math.Round(float64(degrees)*a.tpd))
}

// stepSpeed converts an axis speed in degrees per second to servo steps per
// second.
func (a *Actuator) stepSpeed(speed int) int {
	steps := int(math.Round(math.Abs(float64(speed)) * a.tpd))
	return min(max(steps, 1), speedLimit)
}

// drive commands the goal and waits until the servo is within tolerance.
// The wait is bounded by twice the travel time at speed.
func (a *Actuator) drive(ctx context.Context, j *joint, target, speed int) error {
	goal := a.toTicks(j, target)
	if goal < -goalLimit || goal > goalLimit {
		return fmt.Errorf("%w: %s to %d", ErrRange, j.name, target)
	}

	start, err := a.read(ctx, j)
	if err != nil {
		return err
	}
	if err := j.servo.SetTorque(ctx, true); err != nil {
		return err
	}
	if err := j.servo.SetPosition(ctx, goal, a.stepSpeed(speed)); err != nil {
		return err
	}

	travel := math.Abs(float64(target - a.toDegrees(j, start)))
	deadline := time.Now().Add(time.Duration(2*travel/float64(max(abs(speed), 1))*float64(time.Second)) + a.slack)

	for {
		ticks, err := a.read(ctx, j)
		if err != nil {
			return err
		}
		pos := a.toDegrees(j, ticks)
		if abs(pos-target) <= a.tol {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s at %d, want %d", ErrStalled, j.name, pos, target)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.poll):
		}
	}
}

// cancelRun stops a background motion and waits for it to exit.
func (a *Actuator) cancelRun(j *joint) {
	j.mu.Lock()
	m := j.run
	j.run = nil
	j.mu.Unlock()

	if m != nil {
		m.cancel()
		<-m.done
	}
}

// MoveTo implements mindcuber.Actuator.
func (a *Actuator) MoveTo(ctx context.Context, axis mindcuber.Axis, position, speed int, hold bool) error {
	j, err := a.joint(axis)
	if err != nil {
		return err
	}
	a.cancelRun(j)

	if err := a.drive(ctx, j, position, speed); err != nil {
		return err
	}
	if !hold {
		return j.servo.SetTorque(ctx, false)
	}
	return nil
}

// RunTo implements mindcuber.Actuator.
func (a *Actuator) RunTo(ctx context.Context, axis mindcuber.Axis, position, speed int) error {
	j, err := a.joint(axis)
	if err != nil {
		return err
	}
	a.cancelRun(j)

	runCtx, cancel := context.WithCancel(ctx)
	m := &motion{cancel: cancel, done: make(chan struct{})}
	j.mu.Lock()
	j.run = m
	j.mu.Unlock()

	go func() {
		defer close(m.done)
		err := a.drive(runCtx, j, position, speed)
		if err != nil && runCtx.Err() == nil {
			a.log.Warn().Err(err).Str("axis", string(axis)).Msg("run")
			m.err = err
		}
	}()
	return nil
}

// Running implements mindcuber.Actuator. A background motion that failed
// reports its error once.
func (a *Actuator) Running(ctx context.Context, axis mindcuber.Axis) (bool, error) {
	j, err := a.joint(axis)
	if err != nil {
		return false, err
	}

	j.mu.Lock()
	m := j.run
	j.mu.Unlock()
	if m == nil {
		return false, nil
	}

	select {
	case <-m.done:
		j.mu.Lock()
		if j.run == m {
			j.run = nil
		}
		j.mu.Unlock()
		return false, m.err
	default:
		return true, nil
	}
}

// Position implements mindcuber.Actuator.
func (a *Actuator) Position(ctx context.Context, axis mindcuber.Axis) (int, error) {
	j, err := a.joint(axis)
	if err != nil {
		return 0, err
	}
	ticks, err := a.read(ctx, j)
	if err != nil {
		return 0, err
	}
	return a.toDegrees(j, ticks), nil
}

// Stop implements mindcuber.Actuator. Hold keeps torque at the current
// position, Brake holds then releases and Coast releases at once.
func (a *Actuator) Stop(ctx context.Context, axis mindcuber.Axis, mode mindcuber.StopMode) error {
	j, err := a.joint(axis)
	if err != nil {
		return err
	}
	a.cancelRun(j)

	if mode == mindcuber.Coast {
		return j.servo.SetTorque(ctx, false)
	}

	ticks, err := a.read(ctx, j)
	if err != nil {
		return err
	}
	if err := j.servo.SetTorque(ctx, true); err != nil {
		return err
	}
	if err := j.servo.SetPosition(ctx, ticks, 0); err != nil {
		return err
	}
	if mode == mindcuber.Brake {
		return j.servo.SetTorque(ctx, false)
	}
	return nil
}

// ResetPosition implements mindcuber.Actuator.
func (a *Actuator) ResetPosition(ctx context.Context, axis mindcuber.Axis) error {
	j, err := a.joint(axis)
	if err != nil {
		return err
	}
	ticks, err := a.read(ctx, j)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.zero = ticks
	j.mu.Unlock()
	return nil
}

// Home implements mindcuber.Homer. The servos have absolute encoders, so
// homing drives to the configured rest reading instead of an end stop.
func (a *Actuator) Home(ctx context.Context, axis mindcuber.Axis, speed int) error {
	j, err := a.joint(axis)
	if err != nil {
		return err
	}
	a.cancelRun(j)

	if j.home != nil {
		j.mu.Lock()
		j.zero = *j.home
		j.mu.Unlock()
		if err := a.drive(ctx, j, 0, abs(speed)); err != nil {
			return err
		}
	}
	return a.ResetPosition(ctx, axis)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
