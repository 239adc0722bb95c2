package mindcuber

import (
	"context"
	"time"
)

// Flip turns the cube over the front-back axis with the flipper arm.
func (r *Robot) Flip(ctx context.Context) error {
	if err := r.checkAbort(ctx); err != nil {
		return err
	}
	start := time.Now()
	r.log.Info().Msg("flip")

	if err := r.flipperHold(ctx, r.cal.FlipSpeed); err != nil {
		return err
	}

	// Grab the cube and pull back. Back-to-back position commands on the
	// same motor can stall it, so each one is followed by a short settle.
	if err := r.moveTo(ctx, AxisFlipper, r.cal.FlipperPull, r.cal.FlipSpeed, true); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.cal.FlipSettle); err != nil {
		return err
	}

	// The cube is now tilted; push it forward so it drops into the turntable.
	if err := r.moveTo(ctx, AxisFlipper, r.cal.FlipperHold, r.cal.FlipPushSpeed, true); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.cal.FlipSettle); err != nil {
		return err
	}

	if err := r.checkAbort(ctx); err != nil {
		return err
	}
	o := r.apply(Flip)
	r.emitPrimitive(flipAction, o, time.Since(start))
	return nil
}

// Rotate turns the whole cube on the turntable by quarters in direction dir.
func (r *Robot) Rotate(ctx context.Context, dir Direction, quarters int) error {
	if err := r.checkAbort(ctx); err != nil {
		return err
	}
	start := time.Now()

	current, err := r.position(ctx, AxisTurntable)
	if err != nil {
		return err
	}
	target := r.cal.NearestStable(current + r.cal.QuarterTurn*dir.Sign()*quarters)
	r.log.Info().Stringer("direction", dir).Int("quarters", quarters).
		Int("current", current).Int("target", target).Msg("rotate")

	if err := r.flipperClear(ctx); err != nil {
		return err
	}
	if err := r.moveTo(ctx, AxisTurntable, target, r.cal.RotateSpeed, true); err != nil {
		return err
	}

	if err := r.checkAbort(ctx); err != nil {
		return err
	}

	action, t := rotateCWAction, RotateCW
	if dir == CCW {
		action, t = rotateCCWAction, RotateCCW
	}
	for i := 0; i < quarters; i++ {
		o := r.apply(t)
		r.emitPrimitive(action, o, time.Since(start))
	}
	return nil
}

// RotateBlocked turns the down layer while the flipper holds the rest of the
// cube. The turntable overshoots the target to take up backlash, then creeps
// back to it at reduced speed. It returns the final target position.
func (r *Robot) RotateBlocked(ctx context.Context, dir Direction, count int) (int, error) {
	if err := r.checkAbort(ctx); err != nil {
		return 0, err
	}

	if err := r.flipperHold(ctx, r.cal.FlipSpeed); err != nil {
		return 0, err
	}

	current, err := r.position(ctx, AxisTurntable)
	if err != nil {
		return 0, err
	}
	target, overshoot := r.cal.BlockedTargets(current, dir, count)
	r.log.Info().Stringer("direction", dir).Int("count", count).Int("current", current).
		Int("overshoot", overshoot).Int("target", target).Msg("rotate blocked")

	if err := r.moveTo(ctx, AxisTurntable, overshoot, r.cal.RotateSpeed, true); err != nil {
		return 0, err
	}
	if err := r.moveTo(ctx, AxisTurntable, target, r.cal.CreepSpeed(), true); err != nil {
		return 0, err
	}
	return target, r.checkAbort(ctx)
}

// BlockedTargets computes the final and overshoot turntable positions for a
// face turn of count quarters in direction dir starting at current.
func (c Calibration) BlockedTargets(current int, dir Direction, count int) (target, overshoot int) {
	sense := dir.Sign() * c.FaceTurnSense
	target = c.NearestStable(current + c.QuarterTurn*count*sense)
	overshoot = target + c.Overshoot*sense
	return target, overshoot
}

// flipperHold lowers the flipper onto the cube unless it already rests there,
// so every flip and blocked turn starts from the same cube position.
func (r *Robot) flipperHold(ctx context.Context, speed int) error {
	pos, err := r.position(ctx, AxisFlipper)
	if err != nil {
		return err
	}
	if pos > r.cal.FlipperHold-r.cal.FlipperHoldTolerance && pos < r.cal.FlipperHold+r.cal.FlipperHoldTolerance {
		return nil
	}
	if err := r.moveTo(ctx, AxisFlipper, r.cal.FlipperHold, speed, true); err != nil {
		return err
	}
	return r.sleep(ctx, r.cal.FlipSettle)
}

// flipperAway moves the flipper arm out of the turntable's way.
func (r *Robot) flipperAway(ctx context.Context, speed int) error {
	r.log.Debug().Msg("flipper away")
	return r.moveTo(ctx, AxisFlipper, r.cal.FlipperAway, speed, true)
}

// flipperClear retracts the flipper only if it would block the turntable.
func (r *Robot) flipperClear(ctx context.Context) error {
	pos, err := r.position(ctx, AxisFlipper)
	if err != nil {
		return err
	}
	if pos > r.cal.FlipperClearance {
		return r.flipperAway(ctx, r.cal.FlipperAwaySpeed)
	}
	return nil
}

// Home drives the flipper and color arm to their end stops and zeroes all
// axes. Actuators without homing support only get their positions reset.
func (r *Robot) Home(ctx context.Context) error {
	homer, ok := r.act.(Homer)
	for _, h := range []struct {
		axis  Axis
		speed int
	}{
		{AxisFlipper, r.cal.FlipperHomeSpeed},
		{AxisColorArm, r.cal.ColorArmHomeSpeed},
	} {
		if err := r.checkAbort(ctx); err != nil {
			return err
		}
		r.log.Info().Str("axis", string(h.axis)).Msg("home")
		if ok {
			if err := homer.Home(ctx, h.axis, h.speed); err != nil {
				return r.actuatorErr(ctx, h.axis, "home", err)
			}
			continue
		}
		if err := r.act.ResetPosition(ctx, h.axis); err != nil {
			return r.actuatorErr(ctx, h.axis, "reset", err)
		}
	}

	if err := r.act.Stop(ctx, AxisTurntable, Coast); err != nil {
		return r.actuatorErr(ctx, AxisTurntable, "stop", err)
	}
	return r.actuatorErr(ctx, AxisTurntable, "reset", r.act.ResetPosition(ctx, AxisTurntable))
}

// Settle pushes the cube against the turntable wall and retracts the flipper,
// leaving the cube in the position scanning expects.
func (r *Robot) Settle(ctx context.Context) error {
	if err := r.flipperHold(ctx, r.cal.FlipperAwaySpeed/3); err != nil {
		return err
	}
	return r.flipperAway(ctx, r.cal.FlipperAwaySpeed/3)
}
