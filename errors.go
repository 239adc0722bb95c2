package mindcuber

import (
	"errors"
	"fmt"
)

// Sentinel errors for the mindcuber package.
var (
	// Run errors
	ErrScan       = errors.New("mindcuber: scan failed")
	ErrResolution = errors.New("mindcuber: color resolution failed")
	ErrSolve      = errors.New("mindcuber: solver failed")
	ErrAborted    = errors.New("mindcuber: aborted")

	// Hardware errors
	ErrActuatorFault = errors.New("mindcuber: actuator fault")

	// State errors
	ErrInvariantViolation = errors.New("mindcuber: orientation invariant violated")
	ErrAlreadyRunning     = errors.New("mindcuber: solve already running")

	// Parsing errors
	ErrInvalidNotation = errors.New("mindcuber: invalid move notation")
)

// ActuatorFault describes a failed motor command. It matches ErrActuatorFault
// with errors.Is.
type ActuatorFault struct {
	Axis Axis
	Op   string
	Err  error
}

func (f *ActuatorFault) Error() string {
	return fmt.Sprintf("mindcuber: actuator fault on %s (%s): %v", f.Axis, f.Op, f.Err)
}

func (f *ActuatorFault) Unwrap() error {
	return f.Err
}

// Is reports whether target is ErrActuatorFault.
func (f *ActuatorFault) Is(target error) bool {
	return target == ErrActuatorFault
}

func fault(axis Axis, op string, err error) error {
	if err == nil {
		return nil
	}
	var af *ActuatorFault
	if errors.As(err, &af) {
		return err
	}
	return &ActuatorFault{Axis: axis, Op: op, Err: err}
}
