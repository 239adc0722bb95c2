package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber/internal/analysis"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
	"github.com/SeamusWaldron/mindcuber/internal/tui"
)

var (
	listLimit   int
	showLast    bool
	showRaw     bool
	replaySpeed float64
	statsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse recorded runs",
	Long:  `Commands for listing, inspecting and deleting recorded solve runs.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Long:  `Display a list of recent runs with their outcome and basic statistics.`,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show details of a run",
	Long: `Display detailed information about a run including:
- Run metadata (backend, duration, outcome)
- Time spent in each state
- The scanned cube and the solution
- Every executed move with its plan and resulting orientation

The run ID may be abbreviated. Use --last to show the most recent run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRunsShow,
}

var runsReplayCmd = &cobra.Command{
	Use:   "replay [run-id]",
	Short: "Replay the event timeline of a run",
	Long: `Print the state changes, reorientations and moves of a run in the order
they happened, paced like the original run.

Usage:
  mindcuber runs replay --last              # Replay at recorded speed
  mindcuber runs replay <run-id> --speed 4  # Replay at 4x speed
  mindcuber runs replay <run-id> --speed 0  # Print without pauses`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRunsReplay,
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent runs",
	Long:  `Aggregate the most recent runs: success rate, solve times, move counts and the most common failures.`,
	RunE:  runRunsStats,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its recorded events",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(runsListCmd)
	runsListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of runs to display")

	runsCmd.AddCommand(runsShowCmd)
	runsShowCmd.Flags().BoolVar(&showLast, "last", false, "Show the most recent run")
	runsShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Also print the raw color readings")

	runsCmd.AddCommand(runsReplayCmd)
	runsReplayCmd.Flags().BoolVar(&showLast, "last", false, "Replay the most recent run")
	runsReplayCmd.Flags().Float64VarP(&replaySpeed, "speed", "s", 1.0, "Playback speed multiplier (0 for no pauses)")

	runsCmd.AddCommand(runsStatsCmd)
	runsStatsCmd.Flags().IntVar(&listLimit, "limit", 100, "Number of recent runs to include")
	runsStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the summary as JSON")

	runsCmd.AddCommand(runsDeleteCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runRepo := storage.NewRunRepository(db)
	runs, err := runRepo.List(listLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		fmt.Println("Start one with: mindcuber solve")
		return nil
	}

	fmt.Printf("Recent runs (showing %d):\n", len(runs))
	fmt.Println()
	fmt.Printf("%-8s  %-19s  %-8s  %-9s  %-10s  %-7s  %s\n", "ID", "Started", "Backend", "State", "Duration", "Moves", "Notes")
	fmt.Println("--------  -------------------  --------  ---------  ----------  -------  -----")

	for _, r := range runs {
		duration := "-"
		if r.DurationMs != nil {
			duration = tui.FormatDuration(time.Duration(*r.DurationMs) * time.Millisecond)
		}

		moves := "-"
		if r.Solution != nil {
			moves = fmt.Sprintf("%d/%d", r.Executed, countMoves(*r.Solution))
		}

		notes := deref(r.Notes)
		if len(notes) > 30 {
			notes = notes[:27] + "..."
		}
		if r.EndedAt == nil {
			notes += " (active)"
		}

		fmt.Printf("%-8s  %-19s  %-8s  %-9s  %-10s  %-7s  %s\n",
			shortID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			deref(r.Backend),
			r.State,
			duration,
			moves,
			notes,
		)
	}

	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := findRun(db, args, showLast)
	if err != nil {
		return err
	}

	moves, err := storage.NewMoveRepository(db).GetByRun(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get moves: %w", err)
	}
	states, err := storage.NewStateRepository(db).GetByRun(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get states: %w", err)
	}
	orients, err := storage.NewOrientationRepository(db).GetByRun(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get orientations: %w", err)
	}
	summary := analysis.Summarize(run, moves, orients, states)

	fmt.Println("Run Details")
	fmt.Println("===========")
	fmt.Println()

	fmt.Printf("ID:       %s\n", run.RunID)
	fmt.Printf("Backend:  %s\n", deref(run.Backend))
	fmt.Printf("Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.EndedAt != nil {
		fmt.Printf("Ended:    %s\n", run.EndedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if run.DurationMs != nil {
		fmt.Printf("Duration: %s\n", tui.FormatDuration(time.Duration(*run.DurationMs)*time.Millisecond))
	}
	fmt.Printf("State:    %s\n", run.State)
	if run.Error != nil {
		fmt.Printf("Error:    %s\n", *run.Error)
	}
	if run.Notes != nil && *run.Notes != "" {
		fmt.Printf("Notes:    %s\n", *run.Notes)
	}
	fmt.Println()

	// Time in each state runs until the next transition.
	if len(states) > 0 {
		fmt.Println("States")
		fmt.Println("------")
		for i, s := range states {
			d := "-"
			if i+1 < len(states) {
				d = tui.FormatDuration(time.Duration(states[i+1].TsMs-s.TsMs) * time.Millisecond)
			}
			fmt.Printf("  %-10s %8s", s.State, d)
			if s.Error != nil {
				fmt.Printf("  %s", *s.Error)
			}
			fmt.Println()
		}
		fmt.Println()
	}

	if run.Facelets != nil {
		fmt.Println("Cube")
		fmt.Println("----")
		fmt.Printf("%s\n\n", *run.Facelets)
		fmt.Print(tui.RenderNet(*run.Facelets))
		fmt.Println()
	}

	if showRaw {
		readings, err := storage.NewReadingRepository(db).GetByRun(run.RunID)
		if err != nil {
			return fmt.Errorf("failed to get readings: %w", err)
		}
		fmt.Println("Readings")
		fmt.Println("--------")
		for _, r := range readings {
			fmt.Printf("  step %-2d  facelet %-2d  %s\n", r.Step, r.Facelet+1, r.Color)
		}
		fmt.Println()
	}

	if run.Solution != nil {
		fmt.Println("Solution")
		fmt.Println("--------")
		fmt.Printf("%s\n", *run.Solution)
		fmt.Printf("Executed %d of %d moves\n\n", run.Executed, countMoves(*run.Solution))
	}

	if summary.Moves > 0 {
		fmt.Println("Statistics")
		fmt.Println("----------")
		fmt.Printf("Flips:        %d\n", summary.Flips)
		fmt.Printf("Rotations:    %d\n", summary.Rotations)
		fmt.Printf("Half turns:   %d\n", summary.HalfTurns)
		fmt.Printf("Actions/move: %.2f\n", summary.ActionsPerMove)
		fmt.Printf("Avg move:     %s\n", tui.FormatDuration(time.Duration(summary.AvgMoveMs*float64(time.Millisecond))))
		if summary.MovesPerMinute > 0 {
			fmt.Printf("Moves/min:    %.1f\n", summary.MovesPerMinute)
		}
		if sm := summary.SlowestMove; sm != nil {
			fmt.Printf("Slowest:      #%d %s (%s) %s\n", sm.Index+1, sm.Notation,
				tui.FormatDuration(time.Duration(sm.DurationMs)*time.Millisecond), sm.Plan)
		}
		fmt.Println()
	}

	if len(moves) > 0 {
		fmt.Printf("%-4s  %-5s  %-48s  %-11s  %s\n", "#", "Move", "Plan", "Orientation", "Time")
		fmt.Println("----  -----  ------------------------------------------------  -----------  ------")
		for _, m := range moves {
			fmt.Printf("%-4d  %-5s  %-48s  %-11s  %s\n",
				m.MoveIndex+1,
				m.Notation,
				m.Plan,
				m.Orientation,
				tui.FormatDuration(time.Duration(m.DurationMs)*time.Millisecond),
			)
		}
	}

	return nil
}

func runRunsStats(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := storage.NewRunRepository(db).List(listLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	h := analysis.SummarizeHistory(runs)

	if statsJSON {
		data, err := json.MarshalIndent(h, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if h.Runs == 0 {
		fmt.Println("No finished runs yet")
		return nil
	}

	fmt.Printf("Runs:         %d\n", h.Runs)
	fmt.Printf("Solved:       %d (%.0f%%)\n", h.Done, h.SuccessRate*100)
	fmt.Printf("Aborted:      %d\n", h.Aborted)
	if h.Done > 0 {
		fmt.Printf("Avg time:     %s\n", tui.FormatDuration(time.Duration(h.AvgDurationMs*float64(time.Millisecond))))
		fmt.Printf("Best time:    %s\n", tui.FormatDuration(time.Duration(h.BestDurationMs)*time.Millisecond))
		fmt.Printf("Avg moves:    %.1f\n", h.AvgMoves)
	}
	if len(h.Errors) > 0 {
		fmt.Println()
		fmt.Println("Failures")
		fmt.Println("--------")
		for _, e := range sortedCounts(h.Errors) {
			fmt.Printf("  %3d  %s\n", e.count, e.key)
		}
	}
	return nil
}

type keyCount struct {
	key   string
	count int
}

func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

// timelineEvent is one recorded event of a run.
type timelineEvent struct {
	tsMs int64
	text string
}

func runRunsReplay(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := findRun(db, args, showLast)
	if err != nil {
		return err
	}

	events, err := loadTimeline(db, run.RunID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events recorded for run %s", shortID(run.RunID))
	}

	fmt.Printf("Replaying run %s (%d events)\n\n", shortID(run.RunID), len(events))

	ctx := cmd.Context()
	var last int64
	for _, ev := range events {
		if replaySpeed > 0 && ev.tsMs > last {
			wait := time.Duration(float64(ev.tsMs-last)/replaySpeed) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		last = ev.tsMs
		fmt.Printf("%9s  %s\n", tui.FormatDuration(time.Duration(ev.tsMs)*time.Millisecond), ev.text)
	}
	return nil
}

// loadTimeline merges the state, orientation and move records of a run in
// time order.
func loadTimeline(db *storage.DB, runID string) ([]timelineEvent, error) {
	states, err := storage.NewStateRepository(db).GetByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get states: %w", err)
	}
	orients, err := storage.NewOrientationRepository(db).GetByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orientations: %w", err)
	}
	moves, err := storage.NewMoveRepository(db).GetByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	var events []timelineEvent
	for _, s := range states {
		text := "state " + s.State
		if s.Error != nil {
			text += ": " + *s.Error
		}
		events = append(events, timelineEvent{s.TsMs, text})
	}
	for _, o := range orients {
		events = append(events, timelineEvent{o.TsMs, fmt.Sprintf("  %-14s -> %s", o.Action, o.Orientation)})
	}
	for _, m := range moves {
		events = append(events, timelineEvent{m.TsMs, fmt.Sprintf("move %d %s  %s", m.MoveIndex+1, m.Notation, m.Plan)})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].tsMs < events[j].tsMs })
	return events, nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := findRun(db, args, false)
	if err != nil {
		return err
	}
	if err := storage.NewRunRepository(db).Delete(run.RunID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	fmt.Printf("Deleted run %s\n", run.RunID)
	return nil
}

// findRun resolves a run from an abbreviated ID argument or --last.
func findRun(db *storage.DB, args []string, last bool) (*storage.Run, error) {
	runRepo := storage.NewRunRepository(db)

	var run *storage.Run
	var err error
	switch {
	case last:
		run, err = runRepo.GetLast()
		if err == nil && run == nil {
			return nil, fmt.Errorf("no runs found")
		}
	case len(args) > 0:
		run, err = runRepo.FindByPrefix(args[0])
		if err == nil && run == nil {
			return nil, fmt.Errorf("run not found: %s", args[0])
		}
	default:
		return nil, fmt.Errorf("please provide a run ID or use --last")
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func countMoves(solution string) int {
	return len(strings.Fields(solution))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
