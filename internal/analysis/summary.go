// Package analysis derives statistics from recorded runs.
package analysis

import (
	"sort"
	"strings"

	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

// RunSummary contains statistics for a single run.
type RunSummary struct {
	RunID          string           `json:"run_id"`
	State          string           `json:"state"`
	DurationMs     int64            `json:"duration_ms"`
	Moves          int              `json:"moves"`
	HalfTurns      int              `json:"half_turns"`
	Flips          int              `json:"flips"`
	Rotations      int              `json:"rotations"`
	ActionsPerMove float64          `json:"actions_per_move"`
	MovesPerMinute float64          `json:"moves_per_minute"`
	AvgMoveMs      float64          `json:"avg_move_ms"`
	SlowestMove    *MoveStat        `json:"slowest_move,omitempty"`
	StateMs        map[string]int64 `json:"state_ms"`
	FaceCounts     map[string]int   `json:"face_counts"`
}

// MoveStat identifies one executed move.
type MoveStat struct {
	Index      int    `json:"index"`
	Notation   string `json:"notation"`
	Plan       string `json:"plan"`
	DurationMs int64  `json:"duration_ms"`
}

// Summarize computes the statistics of one run from its records.
func Summarize(run *storage.Run, moves []storage.MoveRecord, orients []storage.OrientationRecord, states []storage.StateRecord) *RunSummary {
	s := &RunSummary{
		RunID:      run.RunID,
		State:      run.State,
		Moves:      len(moves),
		StateMs:    StateDurations(states),
		FaceCounts: make(map[string]int),
	}
	if run.DurationMs != nil {
		s.DurationMs = *run.DurationMs
	}

	s.Flips, s.Rotations = CountReorientations(executing(orients, states))

	var total int64
	for _, m := range moves {
		s.FaceCounts[m.Face]++
		if m.Turns == 2 {
			s.HalfTurns++
		}
		total += m.DurationMs
		if s.SlowestMove == nil || m.DurationMs > s.SlowestMove.DurationMs {
			s.SlowestMove = &MoveStat{Index: m.MoveIndex, Notation: m.Notation, Plan: m.Plan, DurationMs: m.DurationMs}
		}
	}

	if len(moves) > 0 {
		s.AvgMoveMs = float64(total) / float64(len(moves))
		// Each move ends with one blocked rotation on top of its reorientations.
		s.ActionsPerMove = float64(s.Flips+s.Rotations+len(moves)) / float64(len(moves))
	}
	if ms := s.StateMs["executing"]; ms > 0 {
		s.MovesPerMinute = float64(len(moves)) / (float64(ms) / 60000.0)
	}
	return s
}

// executing drops the primitives recorded before the executing state, which
// belong to the scan.
func executing(orients []storage.OrientationRecord, states []storage.StateRecord) []storage.OrientationRecord {
	for _, st := range states {
		if st.State != "executing" {
			continue
		}
		var out []storage.OrientationRecord
		for _, o := range orients {
			if o.TsMs >= st.TsMs {
				out = append(out, o)
			}
		}
		return out
	}
	return nil
}

// CountReorientations splits recorded primitives into flips and whole-cube
// rotations.
func CountReorientations(orients []storage.OrientationRecord) (flips, rotations int) {
	for _, o := range orients {
		switch {
		case o.Action == "flip":
			flips++
		case strings.HasPrefix(o.Action, "rotate_c"):
			rotations++
		}
	}
	return flips, rotations
}

// StateDurations returns the time spent in each state. A state lasts until
// the next transition; the final state has no duration.
func StateDurations(states []storage.StateRecord) map[string]int64 {
	out := make(map[string]int64)
	for i := 0; i+1 < len(states); i++ {
		out[states[i].State] += states[i+1].TsMs - states[i].TsMs
	}
	return out
}

// SlowMoves returns the moves that took at least thresholdMs, slowest first.
func SlowMoves(moves []storage.MoveRecord, thresholdMs int64) []MoveStat {
	var out []MoveStat
	for _, m := range moves {
		if m.DurationMs >= thresholdMs {
			out = append(out, MoveStat{Index: m.MoveIndex, Notation: m.Notation, Plan: m.Plan, DurationMs: m.DurationMs})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DurationMs > out[j].DurationMs })
	return out
}

// HistorySummary aggregates many runs.
type HistorySummary struct {
	Runs           int            `json:"runs"`
	Done           int            `json:"done"`
	Aborted        int            `json:"aborted"`
	SuccessRate    float64        `json:"success_rate"`
	AvgDurationMs  float64        `json:"avg_duration_ms"`
	BestDurationMs int64          `json:"best_duration_ms"`
	AvgMoves       float64        `json:"avg_moves"`
	Errors         map[string]int `json:"errors,omitempty"`
}

// SummarizeHistory aggregates finished runs. Durations and move counts only
// consider completed solves.
func SummarizeHistory(runs []storage.Run) *HistorySummary {
	h := &HistorySummary{Errors: make(map[string]int)}

	var totalMs int64
	var totalMoves int
	for _, r := range runs {
		if r.EndedAt == nil {
			continue
		}
		h.Runs++
		switch r.State {
		case "done":
			h.Done++
			totalMoves += r.Executed
			if r.DurationMs != nil {
				totalMs += *r.DurationMs
				if h.BestDurationMs == 0 || *r.DurationMs < h.BestDurationMs {
					h.BestDurationMs = *r.DurationMs
				}
			}
		case "aborted":
			h.Aborted++
			if r.Error != nil {
				h.Errors[*r.Error]++
			}
		}
	}

	if h.Runs > 0 {
		h.SuccessRate = float64(h.Done) / float64(h.Runs)
	}
	if h.Done > 0 {
		h.AvgDurationMs = float64(totalMs) / float64(h.Done)
		h.AvgMoves = float64(totalMoves) / float64(h.Done)
	}
	return h
}
