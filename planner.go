package mindcuber

import (
	"context"
	"fmt"
	"strings"
)

// ActionKind is a primitive physical action.
type ActionKind int

const (
	ActionFlip ActionKind = iota
	ActionRotateCW
	ActionRotateCCW
	ActionRotateBlocked
)

func (k ActionKind) String() string {
	switch k {
	case ActionFlip:
		return "flip"
	case ActionRotateCW:
		return "rotate_cw"
	case ActionRotateCCW:
		return "rotate_ccw"
	case ActionRotateBlocked:
		return "rotate_blocked"
	default:
		return "unknown"
	}
}

// Action is one step of a motion plan. Direction and Count only apply to
// ActionRotateBlocked.
type Action struct {
	Kind      ActionKind
	Direction Direction
	Count     int
}

// Transform returns the orientation change caused by the action. A blocked
// rotation turns only the down layer, so it leaves the orientation alone.
func (a Action) Transform() Transform {
	switch a.Kind {
	case ActionFlip:
		return Flip
	case ActionRotateCW:
		return RotateCW
	case ActionRotateCCW:
		return RotateCCW
	default:
		return Identity
	}
}

func (a Action) String() string {
	if a.Kind == ActionRotateBlocked {
		return fmt.Sprintf("%s(%s,%d)", a.Kind, a.Direction, a.Count)
	}
	return a.Kind.String()
}

// Plan is an ordered list of primitive actions.
type Plan []Action

func (p Plan) String() string {
	if len(p) == 0 {
		return "-"
	}
	parts := make([]string, len(p))
	for i, a := range p {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// Transform returns the combined orientation change of the whole plan.
func (p Plan) Transform() Transform {
	t := Identity
	for _, a := range p {
		t = t.Then(a.Transform())
	}
	return t
}

var (
	flipAction      = Action{Kind: ActionFlip}
	rotateCWAction  = Action{Kind: ActionRotateCW}
	rotateCCWAction = Action{Kind: ActionRotateCCW}
)

// downPlans is indexed by the slot currently holding the target face. Any
// face reaches the working slot in at most three actions.
var downPlans = [6]Plan{
	SlotUp:    {flipAction, flipAction},
	SlotDown:  nil,
	SlotFront: {rotateCWAction, rotateCWAction, flipAction},
	SlotLeft:  {rotateCWAction, flipAction},
	SlotBack:  {flipAction},
	SlotRight: {rotateCCWAction, flipAction},
}

// PlanToDown returns the primitive sequence that brings face to the working
// slot from orientation o.
func PlanToDown(o Orientation, face Face) (Plan, error) {
	slot, err := o.SlotOf(face)
	if err != nil {
		return nil, err
	}
	plan := make(Plan, len(downPlans[slot]))
	copy(plan, downPlans[slot])
	return plan, nil
}

// BringToDown executes the plan that puts face in the working slot. The slot
// is looked up once; the table already accounts for the whole chain.
func (r *Robot) BringToDown(ctx context.Context, face Face) (Plan, error) {
	plan, err := PlanToDown(r.Orientation(), face)
	if err != nil {
		return nil, err
	}

	r.log.Debug().Str("face", string(face)).Stringer("plan", plan).Msg("bring to down")

	for _, a := range plan {
		if err := r.perform(ctx, a); err != nil {
			return plan, err
		}
	}
	return plan, nil
}

// perform executes one reorientation action.
func (r *Robot) perform(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActionFlip:
		return r.Flip(ctx)
	case ActionRotateCW:
		return r.Rotate(ctx, CW, 1)
	case ActionRotateCCW:
		return r.Rotate(ctx, CCW, 1)
	case ActionRotateBlocked:
		_, err := r.RotateBlocked(ctx, a.Direction, a.Count)
		return err
	}
	return fmt.Errorf("unknown action %v", a.Kind)
}
