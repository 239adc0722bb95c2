// Package mindcuber drives a three-motor Rubik's cube solving robot: a
// flipper arm that tips the cube over, a turntable that spins the whole cube
// or (with the flipper holding the top two layers) turns only the bottom
// layer, and an arm that positions a color sensor over each square.
//
// # Features
//
//   - Orientation tracking of the cube through flips and rotations
//   - Planning of the reorientations that bring any face to the turntable
//   - A 54-facelet scan sequence with per-square arm positioning
//   - Execution of solver move lists with turntable error correction
//   - Cancellable full solve with phase timings and a report
//
// # Quick Start
//
// Supply an Actuator for the motors, a Sensor for color and proximity, a
// Resolver that turns raw readings into a facelet string, and a Solver:
//
//	robot, err := mindcuber.New(act, sensor, resolver, solver,
//	    mindcuber.WithLogger(log),
//	    mindcuber.OnMove(func(ev mindcuber.MoveEvent) {
//	        fmt.Println("move:", ev.Move)
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rep, err := robot.RunFullSolve(ctx)
//	fmt.Println(rep.State, mindcuber.FormatMoves(rep.Solution))
//
// Abort may be called from any goroutine; the run stops at the next motor
// poll and every actuator is released.
//
// # Orientation
//
// An Orientation lists the face label currently in each physical slot (up,
// down, front, left, back, right). Faces are only ever turned from the down
// slot, so every move is a plan of flips and whole-cube rotations followed by
// a blocked rotation of the bottom layer:
//
//	planned, _ := mindcuber.PlanMoves(mindcuber.NewOrientation(), moves)
//	for _, p := range planned {
//	    fmt.Println(p.Move, p.Plan, p.Orientation)
//	}
//
// # Hardware
//
// Concrete actuators and sensors live in internal packages: Feetech bus
// servos, a serial sensor board, and an in-memory simulator used by tests and
// the "sim" backend of the mindcuber command.
package mindcuber
