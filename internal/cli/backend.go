package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/config"
	"github.com/SeamusWaldron/mindcuber/internal/feetech"
	"github.com/SeamusWaldron/mindcuber/internal/process"
	"github.com/SeamusWaldron/mindcuber/internal/serialsensor"
	"github.com/SeamusWaldron/mindcuber/internal/sim"
)

// backend is the hardware (or simulation) a robot runs on.
type backend struct {
	name     string
	act      mindcuber.Actuator
	sensor   mindcuber.Sensor
	resolver mindcuber.Resolver
	solver   mindcuber.Solver
	rig      *sim.Rig // sim only
	closers  []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openBackend connects the configured mechanism. The feetech backend talks
// to the servo bus and sensor board and runs the external programs; the sim
// backend answers everything in memory.
func openBackend(cfg config.Config, log zerolog.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendSim:
		rig := sim.New(cfg.Calibration,
			sim.WithScramble(cfg.Sim.Seed, cfg.Sim.Scramble),
			sim.WithRunStep(cfg.Sim.RunStep),
		)
		log.Info().Int64("seed", cfg.Sim.Seed).Int("scramble", cfg.Sim.Scramble).Msg("simulated mechanism")
		return &backend{
			name:     config.BackendSim,
			act:      rig,
			sensor:   rig,
			resolver: rig.Resolver(),
			solver:   rig.Solver(),
			rig:      rig,
		}, nil

	case config.BackendFeetech:
		act, err := feetech.Open(cfg.Feetech, log.With().Str("component", "feetech").Logger())
		if err != nil {
			return nil, fmt.Errorf("servo bus %s: %w", cfg.Feetech.Port, err)
		}
		sensor, err := serialsensor.Open(cfg.Sensor, log.With().Str("component", "sensor").Logger())
		if err != nil {
			act.Close()
			return nil, fmt.Errorf("sensor board %s: %w", cfg.Sensor.Port, err)
		}
		return &backend{
			name:     config.BackendFeetech,
			act:      act,
			sensor:   sensor,
			resolver: process.NewResolver(cfg.Resolver, log),
			solver:   process.NewSolver(cfg.Solver, log),
			closers:  []func() error{act.Close, sensor.Close},
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
