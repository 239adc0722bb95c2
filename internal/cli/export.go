package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber/internal/process"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

var (
	exportRunID  string
	exportFormat string
	exportOutput string
	exportLast   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run data",
	Long:  `Export recorded run data in various formats.`,
}

var exportMovesCmd = &cobra.Command{
	Use:   "moves",
	Short: "Export the executed moves of a run",
	Long: `Export the executed move sequence of a run in text or JSON format.

Examples:
  mindcuber export moves --last
  mindcuber export moves --id <run_id> --format json
  mindcuber export moves --id <run_id> --format txt -o moves.txt`,
	RunE: runExportMoves,
}

var exportReadingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Export the color readings of a run",
	Long: `Export the 54 color readings of a run as the JSON object the color
resolver receives, so a scan can be resolved again offline.

Examples:
  mindcuber export readings --last -o scan.json`,
	RunE: runExportReadings,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	for _, c := range []*cobra.Command{exportMovesCmd, exportReadingsCmd} {
		exportCmd.AddCommand(c)
		c.Flags().StringVar(&exportRunID, "id", "", "Run ID to export (may be abbreviated)")
		c.Flags().BoolVar(&exportLast, "last", false, "Export the last run")
		c.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	}
	exportMovesCmd.Flags().StringVar(&exportFormat, "format", "txt", "Export format (txt, json)")
}

func exportTarget(db *storage.DB) (*storage.Run, error) {
	if exportRunID == "" && !exportLast {
		return nil, fmt.Errorf("specify --id or --last")
	}
	var args []string
	if exportRunID != "" {
		args = []string{exportRunID}
	}
	return findRun(db, args, exportLast)
}

func runExportMoves(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := exportTarget(db)
	if err != nil {
		return err
	}

	moves, err := storage.NewMoveRepository(db).GetByRun(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get moves: %w", err)
	}
	if len(moves) == 0 {
		return fmt.Errorf("no moves found for run %s", shortID(run.RunID))
	}

	var output string
	switch strings.ToLower(exportFormat) {
	case "txt":
		notations := make([]string, len(moves))
		for i, m := range moves {
			notations[i] = m.Notation
		}
		output = strings.Join(notations, " ")

	case "json":
		type moveJSON struct {
			MoveIndex   int    `json:"move_index"`
			TsMs        int64  `json:"ts_ms"`
			Notation    string `json:"notation"`
			Face        string `json:"face"`
			Turns       int    `json:"turns"`
			Direction   int    `json:"direction"`
			Plan        string `json:"plan"`
			Target      int    `json:"target"`
			Orientation string `json:"orientation"`
			DurationMs  int64  `json:"duration_ms"`
		}

		out := make([]moveJSON, len(moves))
		for i, m := range moves {
			out[i] = moveJSON{
				MoveIndex:   m.MoveIndex,
				TsMs:        m.TsMs,
				Notation:    m.Notation,
				Face:        m.Face,
				Turns:       m.Turns,
				Direction:   m.Direction,
				Plan:        m.Plan,
				Target:      m.Target,
				Orientation: m.Orientation,
				DurationMs:  m.DurationMs,
			}
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		output = string(data)

	default:
		return fmt.Errorf("unknown format: %s (use txt or json)", exportFormat)
	}

	return writeExport(output, fmt.Sprintf("%d moves", len(moves)))
}

func runExportReadings(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := exportTarget(db)
	if err != nil {
		return err
	}

	readings, err := storage.NewReadingRepository(db).GetByRun(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get readings: %w", err)
	}
	data, err := process.EncodeColors(storage.Colors(readings))
	if err != nil {
		return fmt.Errorf("run %s: %w", shortID(run.RunID), err)
	}

	return writeExport(string(data), fmt.Sprintf("%d readings", len(readings)))
}

func writeExport(output, what string) error {
	if exportOutput == "" {
		fmt.Println(output)
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(exportOutput)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(exportOutput, []byte(output+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Exported %s to %s\n", what, exportOutput)
	return nil
}
