package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/process"
	"github.com/SeamusWaldron/mindcuber/internal/tui"
)

var (
	scanRaw    bool
	scanJSON   bool
	scanWait   bool
	scanNoHome bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the cube without solving it",
	Long: `Home the mechanism, read all 54 facelets and resolve them into a facelet
string. Nothing is recorded and no moves are executed.

Use --raw to print every reading, or --json to print the readings in the
format the external color resolver receives.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanRaw, "raw", false, "Print the raw reading of every facelet")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the readings as resolver input JSON")
	scanCmd.Flags().BoolVar(&scanWait, "wait", false, "Wait for the proximity sensor to see a cube first")
	scanCmd.Flags().BoolVar(&scanNoHome, "no-home", false, "Skip homing")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	be, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer be.Close()

	robot, err := mindcuber.New(be.act, be.sensor, be.resolver, be.solver,
		mindcuber.WithCalibration(cfg.Calibration),
		mindcuber.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer robot.Release(context.Background())

	if !scanNoHome {
		if err := robot.Home(ctx); err != nil {
			return err
		}
	}
	if scanWait {
		if err := robot.WaitForCube(ctx); err != nil {
			return err
		}
		if err := robot.Settle(ctx); err != nil {
			return err
		}
	}

	colors, err := robot.Scan(ctx)
	if err != nil {
		return err
	}

	if scanJSON {
		data, err := process.EncodeColors(colors)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if scanRaw {
		fmt.Printf("%-8s  %-4s  %-6s  %s\n", "Facelet", "Face", "Square", "RGB")
		fmt.Println("--------  ----  ------  -----------")
		for i := 0; i < mindcuber.FaceletCount; i++ {
			face, square := mindcuber.FaceletFace(i)
			fmt.Printf("%-8d  %-4s  %-6d  %s\n", i+1, face, square, colors[i])
		}
		fmt.Println()
	}

	facelets, err := be.resolver.Resolve(ctx, colors)
	if err != nil {
		return fmt.Errorf("%w: %v", mindcuber.ErrResolution, err)
	}

	fmt.Printf("Facelets:    %s\n", facelets)
	fmt.Printf("Orientation: %s\n\n", robot.Orientation())
	fmt.Print(tui.RenderNet(facelets))
	return nil
}
