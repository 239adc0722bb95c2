package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/notation"
)

var (
	planOrientation string
	planSimplify    bool
)

var planCmd = &cobra.Command{
	Use:   "plan <moves...>",
	Short: "Show the physical actions for a move sequence",
	Long: `Dry-run a move sequence: for every move, print the flips and rotations
that bring its face to the turntable and the orientation afterwards. No
hardware is touched.

The orientation lists the face in each slot as U D F L B R, for example
"UDFLBR" for the identity.

Examples:
  mindcuber plan "R U R' U'"
  mindcuber plan --orientation FBDLUR R2 F
  mindcuber plan --simplify "R R U U'"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planOrientation, "orientation", "UDFLBR", "Starting orientation")
	planCmd.Flags().BoolVar(&planSimplify, "simplify", false, "Merge consecutive turns of the same face first")
}

func runPlan(cmd *cobra.Command, args []string) error {
	orient, err := mindcuber.ParseOrientation(planOrientation)
	if err != nil {
		return err
	}

	moves, err := mindcuber.ParseTokens(strings.Fields(strings.Join(args, " ")))
	if err != nil {
		return err
	}

	if planSimplify {
		simplified := notation.Simplify(moves)
		fmt.Printf("Simplified %d moves to %d: %s\n", len(moves), len(simplified), mindcuber.FormatMoves(simplified))
		moves = simplified
	}

	planned, err := mindcuber.PlanMoves(orient, moves)
	if err != nil {
		return err
	}

	fmt.Printf("Start: %s\n\n", orient)
	fmt.Printf("%-4s  %-5s  %-48s  %s\n", "#", "Move", "Actions", "Orientation")
	fmt.Println("----  -----  ------------------------------------------------  -----------")
	for i, p := range planned {
		fmt.Printf("%-4d  %-5s  %-48s  %s\n", i+1, p.Move, p.Plan, p.Orientation)
	}

	counts := mindcuber.CountActions(planned)
	fmt.Println()
	fmt.Printf("Moves: %d  Flips: %d  Rotations: %d\n",
		len(planned),
		counts[mindcuber.ActionFlip],
		counts[mindcuber.ActionRotateCW]+counts[mindcuber.ActionRotateCCW],
	)
	return nil
}
