// Package config loads mindcuber.yaml over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SeamusWaldron/mindcuber"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "mindcuber.yaml"

// Backends.
const (
	BackendSim     = "sim"
	BackendFeetech = "feetech"
)

// Config is the file configuration of the robot and CLI.
type Config struct {
	Backend     string                `yaml:"backend"`
	DBPath      string                `yaml:"db_path"`
	MetricsAddr string                `yaml:"metrics_addr"`
	LogLevel    string                `yaml:"log_level"`
	Feetech     Feetech               `yaml:"feetech"`
	Sensor      Sensor                `yaml:"sensor"`
	Solver      Command               `yaml:"solver"`
	Resolver    Command               `yaml:"resolver"`
	Sim         Sim                   `yaml:"sim"`
	Calibration mindcuber.Calibration `yaml:"calibration"`
}

// Feetech configures the servo bus.
type Feetech struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"`

	// Servo IDs per axis.
	Flipper   int `yaml:"flipper_id"`
	Turntable int `yaml:"turntable_id"`
	ColorArm  int `yaml:"colorarm_id"`

	// TicksPerDegree converts motor degrees to servo steps.
	TicksPerDegree float64 `yaml:"ticks_per_degree"`
	// Tolerance is how close, in degrees, a servo must get to count as arrived.
	Tolerance int `yaml:"tolerance"`
	// Home holds the raw encoder reading of each axis's rest position,
	// keyed by axis name. Axes without an entry home where they stand.
	Home map[string]int `yaml:"home"`
}

// Sensor configures the serial color/proximity sensor board.
type Sensor struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Command is an external program invocation.
type Command struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// Sim configures the simulated backend.
type Sim struct {
	Seed     int64 `yaml:"seed"`
	Scramble int   `yaml:"scramble"`
	RunStep  int   `yaml:"run_step"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Backend:     BackendSim,
		MetricsAddr: "",
		LogLevel:    "info",
		Feetech: Feetech{
			BaudRate:       1_000_000,
			Timeout:        100 * time.Millisecond,
			Flipper:        1,
			Turntable:      2,
			ColorArm:       3,
			TicksPerDegree: 4096.0 / 360.0,
			Tolerance:      3,
		},
		Sensor: Sensor{
			BaudRate: 115200,
			Timeout:  500 * time.Millisecond,
		},
		Solver: Command{
			Command: "kociemba",
			Timeout: 30 * time.Second,
		},
		Resolver: Command{
			Command: "rubiks-color-resolver",
			Args:    []string{"--rgb"},
			Timeout: 30 * time.Second,
		},
		Sim: Sim{
			Seed:     1,
			Scramble: 20,
			RunStep:  40,
		},
		Calibration: mindcuber.DefaultCalibration(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides values from MINDCUBER_* environment variables.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Backend, "MINDCUBER_BACKEND")
	set(&c.DBPath, "MINDCUBER_DB")
	set(&c.MetricsAddr, "MINDCUBER_METRICS_ADDR")
	set(&c.LogLevel, "MINDCUBER_LOG_LEVEL")
	set(&c.Feetech.Port, "MINDCUBER_SERVO_PORT")
	set(&c.Sensor.Port, "MINDCUBER_SENSOR_PORT")
	set(&c.Solver.Command, "MINDCUBER_SOLVER")
	set(&c.Resolver.Command, "MINDCUBER_RESOLVER")
}

// Validate checks the values the CLI depends on.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSim, BackendFeetech:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Backend == BackendFeetech {
		ids := map[int]bool{}
		for _, id := range []int{c.Feetech.Flipper, c.Feetech.Turntable, c.Feetech.ColorArm} {
			if id <= 0 || id > 253 {
				return fmt.Errorf("config: servo id %d out of range", id)
			}
			if ids[id] {
				return fmt.Errorf("config: servo id %d used twice", id)
			}
			ids[id] = true
		}
		if c.Feetech.TicksPerDegree <= 0 {
			return fmt.Errorf("config: ticks_per_degree must be positive")
		}
	}
	return c.Calibration.Validate()
}
