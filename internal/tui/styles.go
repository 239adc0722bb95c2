package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/SeamusWaldron/mindcuber"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	stateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	moveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	currentStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("226"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// stickerColors are the terminal colors of a solved cube's faces.
var stickerColors = map[byte]lipgloss.Color{
	'U': lipgloss.Color("15"),  // white
	'R': lipgloss.Color("196"), // red
	'F': lipgloss.Color("34"),  // green
	'D': lipgloss.Color("226"), // yellow
	'L': lipgloss.Color("208"), // orange
	'B': lipgloss.Color("21"),  // blue
}

func sticker(c byte) string {
	color, ok := stickerColors[c]
	if !ok {
		return "??"
	}
	return lipgloss.NewStyle().Background(color).Render("  ")
}

// RenderNet draws a facelet string in URFDLB order as an unfolded cube.
func RenderNet(facelets string) string {
	if len(facelets) != mindcuber.FaceletCount {
		return errorStyle.Render(fmt.Sprintf("invalid facelet string (%d characters)", len(facelets)))
	}

	face := func(name byte) string {
		i := strings.IndexByte("URFDLB", name) * 9
		return facelets[i : i+9]
	}
	row := func(f string, r int) string {
		var b strings.Builder
		for c := 0; c < 3; c++ {
			b.WriteString(sticker(f[r*3+c]))
		}
		return b.String()
	}

	pad := strings.Repeat(" ", 6)
	var b strings.Builder
	for r := 0; r < 3; r++ {
		b.WriteString(pad + row(face('U'), r) + "\n")
	}
	for r := 0; r < 3; r++ {
		for _, f := range []byte("LFRB") {
			b.WriteString(row(face(f), r))
		}
		b.WriteString("\n")
	}
	for r := 0; r < 3; r++ {
		b.WriteString(pad + row(face('D'), r) + "\n")
	}
	return b.String()
}

// RenderMoves lists moves, highlighting the one at index current.
func RenderMoves(moves []mindcuber.Move, current int) string {
	parts := make([]string, len(moves))
	for i, mv := range moves {
		switch {
		case i == current:
			parts[i] = currentStyle.Render(mv.String())
		case i < current:
			parts[i] = statusStyle.Render(mv.String())
		default:
			parts[i] = moveStyle.Render(mv.String())
		}
	}
	return strings.Join(parts, " ")
}

// RenderReport summarizes a finished run.
func RenderReport(rep *mindcuber.Report) string {
	var b strings.Builder

	state := stateStyle.Render(strings.ToUpper(rep.State.String()))
	if rep.State == mindcuber.StateAborted {
		state = errorStyle.Render("ABORTED")
	}
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render("Run"), state)
	fmt.Fprintf(&b, "Duration:    %s\n", FormatDuration(rep.Duration()))

	for _, s := range []mindcuber.RunState{
		mindcuber.StateWaiting, mindcuber.StateScanning, mindcuber.StateResolving,
		mindcuber.StateSolving, mindcuber.StateExecuting,
	} {
		if d, ok := rep.Phases[s]; ok {
			fmt.Fprintf(&b, "  %-10s %s\n", s, FormatDuration(d))
		}
	}

	if rep.Facelets != "" {
		fmt.Fprintf(&b, "Facelets:    %s\n", rep.Facelets)
	}
	if len(rep.Solution) > 0 {
		fmt.Fprintf(&b, "Solution:    %s\n", moveStyle.Render(mindcuber.FormatMoves(rep.Solution)))
		fmt.Fprintf(&b, "Executed:    %d/%d\n", rep.Executed, len(rep.Solution))
	}
	fmt.Fprintf(&b, "Orientation: %s\n", rep.Orientation)
	if rep.Err != nil {
		fmt.Fprintf(&b, "%s\n", errorStyle.Render("Error: "+rep.Err.Error()))
	}
	return b.String()
}

// FormatDuration renders short durations with centiseconds.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}
