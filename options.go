package mindcuber

import "github.com/rs/zerolog"

// Option configures Robot behavior.
type Option func(*config)

type config struct {
	calibration   Calibration
	logger        zerolog.Logger
	waitForCube   bool
	home          bool
	onState       []func(StateEvent)
	onPrimitive   []func(PrimitiveEvent)
	onMove        []func(MoveEvent)
	onReading     []func(ReadingEvent)
	initialOrient Orientation
}

func defaultConfig() *config {
	return &config{
		calibration:   DefaultCalibration(),
		logger:        zerolog.Nop(),
		initialOrient: NewOrientation(),
	}
}

// WithCalibration replaces the default mechanism calibration.
func WithCalibration(c Calibration) Option {
	return func(cfg *config) {
		cfg.calibration = c
	}
}

// WithLogger sets the logger used for motion and run tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithCubeDetection makes RunFullSolve wait for the proximity sensor to
// report an inserted cube before scanning.
func WithCubeDetection(enabled bool) Option {
	return func(cfg *config) {
		cfg.waitForCube = enabled
	}
}

// WithHoming drives the flipper and color arm to their end stops at the start
// of a solve, when the actuator supports it.
func WithHoming(enabled bool) Option {
	return func(cfg *config) {
		cfg.home = enabled
	}
}

// WithInitialOrientation starts tracking from o instead of the identity.
func WithInitialOrientation(o Orientation) Option {
	return func(cfg *config) {
		cfg.initialOrient = o
	}
}

// OnStateChange registers a callback fired on every run state transition.
func OnStateChange(cb func(StateEvent)) Option {
	return func(cfg *config) {
		cfg.onState = append(cfg.onState, cb)
	}
}

// OnPrimitive registers a callback fired after each completed flip or rotation.
func OnPrimitive(cb func(PrimitiveEvent)) Option {
	return func(cfg *config) {
		cfg.onPrimitive = append(cfg.onPrimitive, cb)
	}
}

// OnMove registers a callback fired after each executed solver move.
func OnMove(cb func(MoveEvent)) Option {
	return func(cfg *config) {
		cfg.onMove = append(cfg.onMove, cb)
	}
}

// OnReading registers a callback fired for each recorded color reading.
func OnReading(cb func(ReadingEvent)) Option {
	return func(cfg *config) {
		cfg.onReading = append(cfg.onReading, cb)
	}
}
