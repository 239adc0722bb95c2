package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/metrics"
	"github.com/SeamusWaldron/mindcuber/internal/recorder"
	"github.com/SeamusWaldron/mindcuber/internal/tui"
)

var (
	solveNotes        string
	solveTUI          bool
	solveManualInsert bool
	solveNoHome       bool
	solveNoRecord     bool
	solveMetricsAddr  string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Scan and solve the cube",
	Long: `Run a full solve: wait for the cube, scan all 54 facelets, resolve colors,
ask the solver for a move sequence and execute it.

The run is recorded in the history database unless --no-record is given.
Ctrl+C aborts the run and releases every motor.

Examples:
  mindcuber solve
  mindcuber solve --tui
  mindcuber solve --manual-insert --notes "new sensor mount"
  mindcuber solve --metrics-addr :9120`,
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVar(&solveNotes, "notes", "", "Notes for this run")
	solveCmd.Flags().BoolVar(&solveTUI, "tui", false, "Show the run in an interactive view")
	solveCmd.Flags().BoolVar(&solveManualInsert, "manual-insert", false, "Confirm cube insertion at a prompt instead of the proximity sensor")
	solveCmd.Flags().BoolVar(&solveNoHome, "no-home", false, "Skip homing the flipper and color arm")
	solveCmd.Flags().BoolVar(&solveNoRecord, "no-record", false, "Do not record the run")
	solveCmd.Flags().StringVar(&solveMetricsAddr, "metrics-addr", "", "Serve /metrics and /status on this address")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if solveTUI {
		// Keep console logs out of the alternate screen.
		log = log.Level(zerolog.Disabled)
	}

	if solveManualInsert {
		ready, err := confirmInserted()
		if err != nil {
			return err
		}
		if !ready {
			fmt.Println("Cancelled")
			return nil
		}
	}

	be, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}()

	opts := []mindcuber.Option{
		mindcuber.WithCalibration(cfg.Calibration),
		mindcuber.WithCubeDetection(!solveManualInsert),
		mindcuber.WithHoming(!solveNoHome),
	}

	// Recording
	var session *recorder.Session
	if !solveNoRecord {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		stateFile, err := openStateFile()
		if err != nil {
			return err
		}
		session = recorder.NewSession(db, stateFile, log.With().Str("component", "recorder").Logger())
		if id, err := session.RecoverInterrupted(); err != nil {
			log.Warn().Err(err).Msg("recover interrupted run")
		} else if id != "" {
			fmt.Printf("Marked interrupted run %s as aborted\n", shortID(id))
		}
		opts = append(opts, session.Options()...)
	}

	// Metrics
	addr := cfg.MetricsAddr
	if solveMetricsAddr != "" {
		addr = solveMetricsAddr
	}
	collector := metrics.New()
	opts = append(opts, collector.Options()...)
	if addr != "" {
		srv := metrics.NewServer(collector, log.With().Str("component", "metrics").Logger())
		srv.Start(addr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		fmt.Printf("Serving metrics on %s\n", addr)
	}

	var view *tui.Model
	var robot *mindcuber.Robot
	if solveTUI {
		view = tui.New(func() { robot.Abort() })
		opts = append(opts, view.Options()...)
	}
	opts = append(opts, mindcuber.WithLogger(log))

	robot, err = mindcuber.New(be.act, be.sensor, be.resolver, be.solver, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if session != nil {
		runID, err := session.Start(be.name, solveNotes)
		if err != nil {
			return fmt.Errorf("failed to start run: %w", err)
		}
		fmt.Printf("Started run: %s\n", runID)
	}

	var rep *mindcuber.Report
	var runErr error
	if view != nil {
		rep, runErr = runWithView(ctx, robot, view)
	} else {
		rep, runErr = robot.RunFullSolve(ctx)
	}

	if session != nil {
		if err := session.Finish(rep); err != nil {
			log.Warn().Err(err).Msg("recording incomplete")
			fmt.Fprintf(os.Stderr, "Warning: run history incomplete: %v\n", err)
		}
	}

	if rep != nil {
		fmt.Println()
		fmt.Print(tui.RenderReport(rep))
		if rep.Facelets != "" {
			fmt.Println()
			fmt.Print(tui.RenderNet(rep.Facelets))
		}
	}
	if be.rig != nil {
		fmt.Printf("\nSimulated cube solved: %v\n", be.rig.Solved())
	}

	return runErr
}

// runWithView runs the solve in the background while the TUI owns the
// terminal. The view only quits once the run has ended.
func runWithView(ctx context.Context, robot *mindcuber.Robot, view *tui.Model) (*mindcuber.Report, error) {
	var rep *mindcuber.Report
	var runErr error
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		rep, runErr = robot.RunFullSolve(ctx)
		view.Finish(rep, runErr)
	}()

	p := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cancel()
		robot.Abort()
		<-done
		return rep, errors.Join(runErr, fmt.Errorf("tui error: %w", err))
	}
	<-done
	return rep, runErr
}

// confirmInserted asks the operator to place the cube on the turntable.
func confirmInserted() (bool, error) {
	var ready bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Place the cube on the turntable").
				Description("The flipper must be clear of the cube before continuing.").
				Affirmative("Inserted").
				Negative("Cancel").
				Value(&ready),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return ready, nil
}

func openStateFile() (*recorder.StateFile, error) {
	path, err := recorder.DefaultStatePath()
	if err != nil {
		return nil, err
	}
	sf, err := recorder.NewStateFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return sf, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
