// Package tui shows a robot run live in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SeamusWaldron/mindcuber"
)

// Messages
type tickMsg time.Time
type stateMsg mindcuber.StateEvent
type primitiveMsg mindcuber.PrimitiveEvent
type moveMsg mindcuber.MoveEvent
type readingMsg mindcuber.ReadingEvent
type doneMsg struct {
	rep *mindcuber.Report
	err error
}

// Model is the bubbletea model of one run. Feed it by registering Options
// with the robot and calling Finish when RunFullSolve returns.
type Model struct {
	events   chan tea.Msg
	finished chan doneMsg
	abort    func()

	// Run
	state       mindcuber.RunState
	orientation mindcuber.Orientation
	readings    int
	lastColor   mindcuber.RGB
	moves       []mindcuber.Move
	total       int
	primitives  int
	start       time.Time
	elapsed     time.Duration

	// Result
	done     bool
	report   *mindcuber.Report
	err      error
	aborting bool

	// UI
	width    int
	quitting bool
}

// New creates a model. abort is called when the user asks to stop the run.
func New(abort func()) *Model {
	return &Model{
		events:      make(chan tea.Msg, 1024),
		finished:    make(chan doneMsg, 1),
		abort:       abort,
		orientation: mindcuber.NewOrientation(),
		start:       time.Now(),
	}
}

// send queues a robot event without ever blocking the robot.
func (m *Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// Options returns the robot options that feed this model.
func (m *Model) Options() []mindcuber.Option {
	return []mindcuber.Option{
		mindcuber.OnStateChange(func(ev mindcuber.StateEvent) { m.send(stateMsg(ev)) }),
		mindcuber.OnPrimitive(func(ev mindcuber.PrimitiveEvent) { m.send(primitiveMsg(ev)) }),
		mindcuber.OnMove(func(ev mindcuber.MoveEvent) { m.send(moveMsg(ev)) }),
		mindcuber.OnReading(func(ev mindcuber.ReadingEvent) { m.send(readingMsg(ev)) }),
	}
}

// Finish delivers the outcome of the run. Call it once.
func (m *Model) Finish(rep *mindcuber.Report, err error) {
	m.finished <- doneMsg{rep: rep, err: err}
}

// Report returns the final report once the run has finished.
func (m *Model) Report() (*mindcuber.Report, error) {
	return m.report, m.err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.listen())
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case msg := <-m.finished:
			return msg
		}
	}
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.done {
				m.quitting = true
				return m, tea.Quit
			}
			m.requestAbort()
		case "a":
			if !m.done {
				m.requestAbort()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		if !m.done {
			m.elapsed = time.Since(m.start)
		}
		return m, m.tickCmd()

	case stateMsg:
		m.state = msg.State
		return m, m.listen()

	case primitiveMsg:
		m.primitives++
		m.orientation = msg.Orientation
		return m, m.listen()

	case readingMsg:
		m.readings++
		m.lastColor = msg.Color
		return m, m.listen()

	case moveMsg:
		m.moves = append(m.moves, msg.Move)
		m.total = msg.Total
		m.orientation = msg.Orientation
		return m, m.listen()

	case doneMsg:
		m.done = true
		m.report = msg.rep
		m.err = msg.err
		if msg.rep != nil {
			m.state = msg.rep.State
			m.orientation = msg.rep.Orientation
			m.elapsed = msg.rep.Duration()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) requestAbort() {
	if m.aborting {
		return
	}
	m.aborting = true
	if m.abort != nil {
		m.abort()
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("MindCuber"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(FormatDuration(m.elapsed)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("State:       %s\n", stateStyle.Render(strings.ToUpper(m.state.String()))))
	b.WriteString(fmt.Sprintf("Orientation: %s\n", m.orientation))
	b.WriteString(fmt.Sprintf("Primitives:  %d\n", m.primitives))
	b.WriteString(fmt.Sprintf("Readings:    %d/%d", m.readings, mindcuber.FaceletCount))
	if m.readings > 0 {
		b.WriteString(statusStyle.Render(" last " + m.lastColor.String()))
	}
	b.WriteString("\n")

	switch {
	case m.done && m.report != nil && len(m.report.Solution) > 0:
		b.WriteString(fmt.Sprintf("Moves:       %d/%d\n\n", m.report.Executed, len(m.report.Solution)))
		b.WriteString(RenderMoves(m.report.Solution, m.report.Executed))
		b.WriteString("\n")
	case len(m.moves) > 0:
		b.WriteString(fmt.Sprintf("Moves:       %d/%d\n\n", len(m.moves), m.total))
		b.WriteString(RenderMoves(m.moves, len(m.moves)-1))
		b.WriteString("\n")
	}

	if m.done && m.report != nil && m.report.Facelets != "" {
		b.WriteString("\n")
		b.WriteString(RenderNet(m.report.Facelets))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.aborting && !m.done {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Aborting..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "Keys: a=abort  q=quit"
	if m.done {
		help = "Run finished | q=quit"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}
