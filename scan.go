package mindcuber

import (
	"context"
	"fmt"
)

// ScanOrder maps scan step (6 faces x center, then squares 1..8 around the
// face) to the facelet index the reading belongs to. Facelet indexes use the
// resolver layout: faces U, L, F, R, B, D with nine row-major squares each.
var ScanOrder = [FaceletCount]int{
	4, 8, 5, 2, 1, 0, 3, 6, 7,
	22, 26, 23, 20, 19, 18, 21, 24, 25,
	49, 53, 50, 47, 46, 45, 48, 51, 52,
	13, 9, 12, 15, 16, 17, 14, 11, 10,
	40, 42, 43, 44, 41, 38, 37, 36, 39,
	31, 33, 34, 35, 32, 29, 28, 27, 30,
}

// ScanLayout lists the faces in facelet-index order: facelets 0..8 belong to
// ScanLayout[0], 9..17 to ScanLayout[1], and so on.
var ScanLayout = [6]Face{FaceU, FaceL, FaceF, FaceR, FaceB, FaceD}

// FaceletFace returns the face and square (0..8, row-major) of a facelet index.
func FaceletFace(index int) (Face, int) {
	return ScanLayout[index/9], index % 9
}

// ScanFaces is the number of faces visited by a scan.
const ScanFaces = 6

// readingsPerFace is one center plus eight squares.
const readingsPerFace = 9

// scanTransitions present the next face to the color sensor. The scan visits
// faces in a fixed order, so these are simpler than a general plan.
var scanTransitions = [ScanFaces - 1]Plan{
	{flipAction},
	{flipAction},
	{rotateCCWAction, flipAction},
	{rotateCWAction, flipAction},
	{flipAction},
}

// ScanTransition returns the choreography run after scanning face (1..5).
func ScanTransition(face int) Plan {
	return scanTransitions[face-1]
}

// Scan reads all 54 facelets. The returned map is complete on success.
func (r *Robot) Scan(ctx context.Context) (FaceletColors, error) {
	r.log.Info().Msg("scan")
	colors := make(FaceletColors, FaceletCount)
	step := 0

	for face := 1; face <= ScanFaces; face++ {
		if face > 1 {
			for _, a := range ScanTransition(face - 1) {
				if err := r.perform(ctx, a); err != nil {
					return colors, err
				}
			}
		}
		if err := r.scanFace(ctx, face, colors, &step); err != nil {
			return colors, err
		}
	}

	if !colors.Complete() {
		return colors, fmt.Errorf("%w: %d of %d facelets read", ErrScan, len(colors), FaceletCount)
	}
	return colors, nil
}

func (r *Robot) record(ctx context.Context, face int, colors FaceletColors, step *int) error {
	if *step >= FaceletCount {
		return fmt.Errorf("%w: reading %d exceeds %d facelets", ErrScan, *step+1, FaceletCount)
	}
	c, err := r.sensor.ReadColor(ctx)
	if err != nil {
		if r.checkAbort(ctx) != nil {
			return ErrAborted
		}
		return fmt.Errorf("%w: read color: %v", ErrScan, err)
	}

	idx := ScanOrder[*step]
	colors[idx] = c
	r.emitReading(ReadingEvent{Face: face, Step: *step, Index: idx, Color: c})
	*step++
	return nil
}

// scanFace reads the center, then spins the face through one full rotation
// sampling each corner and edge as the turntable passes its milestone.
func (r *Robot) scanFace(ctx context.Context, face int, colors FaceletColors, step *int) error {
	if err := r.checkAbort(ctx); err != nil {
		return err
	}
	r.log.Info().Int("face", face).Int("of", ScanFaces).Msg("scan face")

	pos, err := r.position(ctx, AxisFlipper)
	if err != nil {
		return err
	}
	if pos > r.cal.FlipperClearance {
		if err := r.flipperAway(ctx, r.cal.FlipperAwaySpeed/3); err != nil {
			return err
		}
	}

	if err := r.moveTo(ctx, AxisColorArm, r.cal.ColorArmCenter, r.cal.ColorArmSpeed, true); err != nil {
		return err
	}
	if err := r.record(ctx, face, colors, step); err != nil {
		return err
	}
	readings := 1

	square := 1
	if err := r.colorArmSquare(ctx, square); err != nil {
		return err
	}

	if err := r.act.ResetPosition(ctx, AxisTurntable); err != nil {
		return r.actuatorErr(ctx, AxisTurntable, "reset", err)
	}
	if err := r.act.RunTo(ctx, AxisTurntable, r.cal.FullRotation, r.cal.RotateSpeed); err != nil {
		return r.actuatorErr(ctx, AxisTurntable, "run_to", err)
	}

	for square <= 8 {
		if err := r.checkAbort(ctx); err != nil {
			return err
		}

		pos, err := r.position(ctx, AxisTurntable)
		if err != nil {
			return err
		}

		if pos >= r.cal.Milestones[square-1] {
			// Past the next milestone the arm is over the wrong square.
			if square < 8 && pos >= r.cal.Milestones[square] {
				return fmt.Errorf("%w: face %d: square %d sampled at %d, past milestone %d",
					ErrScan, face, square, pos, r.cal.Milestones[square])
			}
			if err := r.record(ctx, face, colors, step); err != nil {
				return err
			}
			readings++
			square++

			if square > 8 {
				break
			}
			if err := r.colorArmSquare(ctx, square); err != nil {
				return err
			}
			continue
		}

		running, err := r.act.Running(ctx, AxisTurntable)
		if err != nil {
			return r.actuatorErr(ctx, AxisTurntable, "running", err)
		}
		if !running {
			// Re-read: the last milestone may have been crossed as the
			// motion finished.
			pos, err = r.position(ctx, AxisTurntable)
			if err != nil {
				return err
			}
			if pos < r.cal.Milestones[square-1] {
				return fmt.Errorf("%w: face %d: rotation ended at %d with %d of %d readings",
					ErrScan, face, pos, readings, readingsPerFace)
			}
			continue
		}

		if err := r.sleep(ctx, r.cal.PollInterval); err != nil {
			return err
		}
	}

	if readings != readingsPerFace {
		return fmt.Errorf("%w: face %d: %d readings, want %d", ErrScan, face, readings, readingsPerFace)
	}

	// Retract fully after the last face; otherwise only far enough that the
	// flipper will not hit the arm.
	retract := r.cal.ColorArmHalfway
	if face == ScanFaces {
		retract = r.cal.ColorArmRemove
	}
	if err := r.moveTo(ctx, AxisColorArm, retract, r.cal.ColorArmSpeed, true); err != nil {
		return err
	}

	if err := r.waitStopped(ctx, AxisTurntable); err != nil {
		return err
	}
	if err := r.act.Stop(ctx, AxisTurntable, Coast); err != nil {
		return r.actuatorErr(ctx, AxisTurntable, "stop", err)
	}
	return r.actuatorErr(ctx, AxisTurntable, "reset", r.act.ResetPosition(ctx, AxisTurntable))
}

// colorArmSquare positions the sensor over square 1..8; odd squares are
// corners, even squares edges.
func (r *Robot) colorArmSquare(ctx context.Context, square int) error {
	if square < 1 || square > 8 {
		return fmt.Errorf("%w: unsupported square %d", ErrScan, square)
	}
	return r.moveTo(ctx, AxisColorArm, r.cal.ColorArmSquares[square-1], r.cal.ColorArmSpeed, true)
}
