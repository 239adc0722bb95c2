package mindcuber

import (
	"context"
	"fmt"
	"time"
)

// ExecuteMove brings the move's face to the working slot and turns it.
func (r *Robot) ExecuteMove(ctx context.Context, m Move) (MoveEvent, error) {
	start := time.Now()
	ev := MoveEvent{Move: m}

	plan, err := r.BringToDown(ctx, m.Face)
	ev.Plan = plan
	if err != nil {
		return ev, err
	}

	target, err := r.RotateBlocked(ctx, m.Direction, m.Turns)
	if err != nil {
		return ev, err
	}

	ev.Target = target
	ev.Orientation = r.Orientation()
	ev.Duration = time.Since(start)
	return ev, nil
}

// ExecuteMoves runs moves in order and returns how many completed. The abort
// flag is checked before each move.
func (r *Robot) ExecuteMoves(ctx context.Context, moves []Move) (int, error) {
	for i, m := range moves {
		if err := r.checkAbort(ctx); err != nil {
			return i, err
		}

		r.log.Info().Int("index", i+1).Int("total", len(moves)).Str("move", m.Notation()).Msg("execute move")

		ev, err := r.ExecuteMove(ctx, m)
		if err != nil {
			return i, err
		}
		ev.Index = i
		ev.Total = len(moves)
		r.emitMove(ev)
	}
	return len(moves), nil
}

// PlannedMove is one step of a dry run.
type PlannedMove struct {
	Move        Move
	Plan        Plan // includes the final rotate_blocked action
	Orientation Orientation
}

// PlanMoves computes the actions ExecuteMoves would perform starting from o,
// without touching hardware.
func PlanMoves(o Orientation, moves []Move) ([]PlannedMove, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	out := make([]PlannedMove, 0, len(moves))
	for _, m := range moves {
		if !m.Face.Valid() || (m.Turns != 1 && m.Turns != 2) {
			return out, fmt.Errorf("%w: %+v", ErrInvalidNotation, m)
		}

		plan, err := PlanToDown(o, m.Face)
		if err != nil {
			return out, err
		}
		o.Apply(plan.Transform())
		plan = append(plan, Action{Kind: ActionRotateBlocked, Direction: m.Direction, Count: m.Turns})

		out = append(out, PlannedMove{Move: m, Plan: plan, Orientation: o})
	}
	return out, nil
}

// CountActions totals the primitive actions of a dry run.
func CountActions(planned []PlannedMove) map[ActionKind]int {
	counts := make(map[ActionKind]int)
	for _, p := range planned {
		for _, a := range p.Plan {
			counts[a.Kind]++
		}
	}
	return counts
}
