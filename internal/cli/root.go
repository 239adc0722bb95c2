// Package cli implements the command-line interface for mindcuber.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber/internal/config"
	"github.com/SeamusWaldron/mindcuber/internal/logging"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

const version = "0.1.0"

var (
	// Global flags
	dbPath     string
	configPath string
	logLevel   string
	verbose    bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "mindcuber",
	Short: "Rubik's cube solving robot",
	Long: `mindcuber drives a three-motor cube solving robot: a flipper that tips the
cube, a turntable that rotates it or turns its bottom layer, and a color
sensor arm.

It scans the cube, hands the readings to a color resolver and a solver, and
executes the solution. Every run is recorded in a local SQLite history.

Hardware is selected in mindcuber.yaml. The "sim" backend runs the whole
pipeline against a simulated mechanism.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (default: ~/.mindcuber/runs.db)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the config file and environment and builds the logger.
func loadConfig() (config.Config, zerolog.Logger, error) {
	path, required := configPath, true
	if path == "" {
		path, required = config.DefaultFile, false
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, zerolog.Nop(), err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, true)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, log, nil
}

// getDBPath returns the database path from flag, config or default.
func getDBPath(cfg config.Config) (string, error) {
	switch {
	case dbPath != "":
		return dbPath, nil
	case cfg.DBPath != "":
		return cfg.DBPath, nil
	}
	return storage.DefaultDBPath()
}

func openDB(cfg config.Config) (*storage.DB, error) {
	path, err := getDBPath(cfg)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
