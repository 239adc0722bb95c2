package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber/internal/config"
	"github.com/SeamusWaldron/mindcuber/internal/serialsensor"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, history and serial ports",
	Long:  `Display the configured backend, the run history database, any run left active by an interrupted process, and the serial ports present.`,
	RunE:  runStatus,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long:  `List the serial ports present on this machine, for the servo bus and sensor board settings.`,
	RunE:  runPorts,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(portsCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("MindCuber Status")
	fmt.Println("================")
	fmt.Println()

	// Hardware
	fmt.Printf("Backend: %s\n", cfg.Backend)
	switch cfg.Backend {
	case config.BackendFeetech:
		fmt.Printf("  Servo bus:    %s @ %d (flipper %d, turntable %d, color arm %d)\n",
			orNone(cfg.Feetech.Port), cfg.Feetech.BaudRate,
			cfg.Feetech.Flipper, cfg.Feetech.Turntable, cfg.Feetech.ColorArm)
		fmt.Printf("  Sensor board: %s @ %d\n", orNone(cfg.Sensor.Port), cfg.Sensor.BaudRate)
		fmt.Printf("  Solver:       %s\n", cfg.Solver.Command)
		fmt.Printf("  Resolver:     %s\n", cfg.Resolver.Command)
	case config.BackendSim:
		fmt.Printf("  Scramble: %d moves, seed %d\n", cfg.Sim.Scramble, cfg.Sim.Seed)
	}
	fmt.Println()

	// Database info
	path, err := getDBPath(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Database: %s\n", path)

	db, err := storage.Open(path)
	if err == nil {
		defer db.Close()
		runRepo := storage.NewRunRepository(db)
		if last, err := runRepo.GetLast(); err == nil && last != nil {
			fmt.Printf("Last run: %s  %s  %s\n", shortID(last.RunID), last.StartedAt.Local().Format(time.RFC3339), last.State)
		}
		allRuns, _ := runRepo.List(10000)
		fmt.Printf("Total runs: %d\n", len(allRuns))
	} else {
		fmt.Printf("  (unavailable: %v)\n", err)
	}
	fmt.Println()

	// Active run
	stateFile, err := openStateFile()
	if err != nil {
		return err
	}
	if stateFile.HasActiveRun() {
		fmt.Printf("Active run: %s (%s)\n", stateFile.ActiveRunID(), stateFile.State().Backend)
		fmt.Println("  (Left by an interrupted process; the next 'mindcuber solve' marks it aborted)")
	} else {
		fmt.Println("No active run")
	}
	fmt.Println()

	return printPorts()
}

func runPorts(cmd *cobra.Command, args []string) error {
	return printPorts()
}

func printPorts() error {
	ports, err := serialsensor.Ports()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		fmt.Println()
		fmt.Println("Tips:")
		fmt.Println("  - Check the USB cable of the servo adapter and sensor board")
		fmt.Println("  - On Linux, make sure you are in the dialout group")
		return nil
	}
	fmt.Printf("Found %d serial port(s):\n", len(ports))
	for _, p := range ports {
		fmt.Printf("  - %s\n", p)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
