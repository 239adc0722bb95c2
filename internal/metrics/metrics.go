// Package metrics exposes robot activity as Prometheus collectors and serves
// them alongside a JSON status snapshot.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SeamusWaldron/mindcuber"
)

// Collector turns robot events into metrics. Register its Options with the
// robot.
type Collector struct {
	registry *prometheus.Registry

	primitives *prometheus.CounterVec
	primDur    *prometheus.HistogramVec
	moves      *prometheus.CounterVec
	moveDur    prometheus.Histogram
	readings   prometheus.Counter
	runs       *prometheus.CounterVec
	phaseDur   *prometheus.HistogramVec

	mu      sync.RWMutex
	status  Status
	entered time.Time
}

// Status is the latest robot snapshot served on /status.
type Status struct {
	State       string    `json:"state"`
	Orientation string    `json:"orientation"`
	Move        string    `json:"move,omitempty"`
	MoveIndex   int       `json:"move_index"`
	MoveTotal   int       `json:"move_total"`
	Readings    int       `json:"readings"`
	Error       string    `json:"error,omitempty"`
	Updated     time.Time `json:"updated"`
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		primitives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindcuber_primitives_total",
				Help: "Completed reorientation primitives by kind",
			},
			[]string{"action"},
		),
		primDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mindcuber_primitive_duration_seconds",
				Help:    "Duration of reorientation primitives",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
			},
			[]string{"action"},
		),
		moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindcuber_moves_total",
				Help: "Executed solver moves by face",
			},
			[]string{"face"},
		),
		moveDur: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mindcuber_move_duration_seconds",
				Help:    "Duration of a solver move including reorientation",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
			},
		),
		readings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mindcuber_color_readings_total",
				Help: "Color sensor readings recorded during scans",
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindcuber_runs_total",
				Help: "Finished solve runs by outcome",
			},
			[]string{"outcome"},
		),
		phaseDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mindcuber_phase_duration_seconds",
				Help:    "Time spent in each run state",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"state"},
		),
		status: Status{State: mindcuber.StateIdle.String(), Orientation: mindcuber.NewOrientation().String()},
	}

	c.registry.MustRegister(c.primitives, c.primDur, c.moves, c.moveDur, c.readings, c.runs, c.phaseDur)
	return c
}

// Registry returns the registry holding the robot collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Status returns a copy of the latest snapshot.
func (c *Collector) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Options returns the robot options that feed this collector.
func (c *Collector) Options() []mindcuber.Option {
	return []mindcuber.Option{
		mindcuber.OnStateChange(c.observeState),
		mindcuber.OnPrimitive(c.observePrimitive),
		mindcuber.OnMove(c.observeMove),
		mindcuber.OnReading(c.observeReading),
	}
}

func (c *Collector) observeState(ev mindcuber.StateEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.entered.IsZero() && ev.Prev != mindcuber.StateIdle {
		c.phaseDur.WithLabelValues(ev.Prev.String()).Observe(ev.Time.Sub(c.entered).Seconds())
	}
	c.entered = ev.Time

	switch ev.State {
	case mindcuber.StateDone:
		c.runs.WithLabelValues("done").Inc()
	case mindcuber.StateAborted:
		c.runs.WithLabelValues("aborted").Inc()
	case mindcuber.StateScanning:
		c.status.Readings = 0
		c.status.Move = ""
		c.status.MoveIndex = 0
		c.status.MoveTotal = 0
	}

	c.status.State = ev.State.String()
	c.status.Error = ""
	if ev.Err != nil {
		c.status.Error = ev.Err.Error()
	}
	c.status.Updated = ev.Time
}

func (c *Collector) observePrimitive(ev mindcuber.PrimitiveEvent) {
	kind := ev.Action.Kind.String()
	c.primitives.WithLabelValues(kind).Inc()
	c.primDur.WithLabelValues(kind).Observe(ev.Duration.Seconds())

	c.mu.Lock()
	c.status.Orientation = ev.Orientation.String()
	c.status.Updated = time.Now()
	c.mu.Unlock()
}

func (c *Collector) observeMove(ev mindcuber.MoveEvent) {
	c.moves.WithLabelValues(string(ev.Move.Face)).Inc()
	c.moveDur.Observe(ev.Duration.Seconds())

	c.mu.Lock()
	c.status.Move = ev.Move.String()
	c.status.MoveIndex = ev.Index + 1
	c.status.MoveTotal = ev.Total
	c.status.Orientation = ev.Orientation.String()
	c.status.Updated = time.Now()
	c.mu.Unlock()
}

func (c *Collector) observeReading(mindcuber.ReadingEvent) {
	c.readings.Inc()

	c.mu.Lock()
	c.status.Readings++
	c.mu.Unlock()
}
