package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
)

const solved = "UUUUUUUUURRRRRRRRRFFFFFFFFFDDDDDDDDDLLLLLLLLLBBBBBBBBB"

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelTracksEvents(t *testing.T) {
	m := New(nil)

	m.Update(stateMsg{State: mindcuber.StateExecuting})
	m.Update(readingMsg{Color: mindcuber.RGB{R: 1, G: 2, B: 3}})
	flipped := mindcuber.NewOrientation().Applied(mindcuber.Flip)
	m.Update(primitiveMsg{Action: mindcuber.Action{Kind: mindcuber.ActionFlip}, Orientation: flipped})
	m.Update(moveMsg{Index: 0, Total: 3, Move: mindcuber.Move{Face: mindcuber.FaceR, Turns: 1, Direction: mindcuber.CW}, Orientation: flipped})

	view := m.View()
	assert.Contains(t, view, "EXECUTING")
	assert.Contains(t, view, flipped.String())
	assert.Contains(t, view, "Readings:    1/54")
	assert.Contains(t, view, "Moves:       1/3")
	assert.Contains(t, view, "a=abort")
}

func TestModelAbortKey(t *testing.T) {
	calls := 0
	m := New(func() { calls++ })

	m.Update(key("a"))
	m.Update(key("q"))
	assert.Equal(t, 1, calls)
	assert.Contains(t, m.View(), "Aborting")

	_, cmd := m.Update(doneMsg{rep: &mindcuber.Report{State: mindcuber.StateAborted}, err: mindcuber.ErrAborted})
	assert.Nil(t, cmd)

	_, cmd = m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModelFinish(t *testing.T) {
	m := New(nil)
	start := time.Now()
	rep := &mindcuber.Report{
		State:       mindcuber.StateDone,
		Facelets:    solved,
		Solution:    []mindcuber.Move{{Face: mindcuber.FaceU, Turns: 2, Direction: mindcuber.CW}},
		Executed:    1,
		Orientation: mindcuber.NewOrientation(),
		Started:     start,
		Ended:       start.Add(90 * time.Second),
	}

	m.Finish(rep, nil)
	msg := m.listen()()
	m.Update(msg)

	got, err := m.Report()
	require.NoError(t, err)
	assert.Same(t, rep, got)

	view := m.View()
	assert.Contains(t, view, "DONE")
	assert.Contains(t, view, "Moves:       1/1")
	assert.Contains(t, view, "1m30.0s")
	assert.Contains(t, view, "Run finished")
}

func TestOptionsNeverBlock(t *testing.T) {
	m := New(nil)
	opts := m.Options()
	require.Len(t, opts, 4)

	_, err := mindcuber.New(nil, nil, nil, nil, opts...)
	require.NoError(t, err)

	for i := 0; i < cap(m.events)+10; i++ {
		m.send(readingMsg{})
	}
	assert.Len(t, m.events, cap(m.events))
}

func TestRenderNet(t *testing.T) {
	net := RenderNet(solved)
	assert.Equal(t, 9, strings.Count(net, "\n"))

	assert.Contains(t, RenderNet("UUU"), "invalid")
}

func TestRenderReport(t *testing.T) {
	rep := &mindcuber.Report{
		State:    mindcuber.StateAborted,
		Solution: []mindcuber.Move{{Face: mindcuber.FaceF, Turns: 1, Direction: mindcuber.CCW}},
		Phases:   map[mindcuber.RunState]time.Duration{mindcuber.StateScanning: 2 * time.Second},
		Err:      errors.New("servo stalled"),
	}

	out := RenderReport(rep)
	assert.Contains(t, out, "ABORTED")
	assert.Contains(t, out, "scanning")
	assert.Contains(t, out, "2.00s")
	assert.Contains(t, out, "F'")
	assert.Contains(t, out, "Executed:    0/1")
	assert.Contains(t, out, "servo stalled")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5.0s", FormatDuration(125*time.Second))
}
