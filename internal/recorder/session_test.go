package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/sim"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

func fastCalibration() mindcuber.Calibration {
	c := mindcuber.DefaultCalibration()
	c.PollInterval = time.Microsecond
	c.FlipSettle = 0
	c.ProximityInterval = time.Microsecond
	return c
}

func setup(t *testing.T) (*storage.DB, *StateFile) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sf, err := NewStateFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	return db, sf
}

func TestSessionRecordsFullSolve(t *testing.T) {
	db, sf := setup(t)
	sess := NewSession(db, sf, zerolog.Nop())

	rig := sim.New(fastCalibration(), sim.WithScramble(9, 12))
	opts := append([]mindcuber.Option{mindcuber.WithCalibration(fastCalibration())}, sess.Options()...)
	r, err := mindcuber.New(rig, rig, rig.Resolver(), rig.Solver(), opts...)
	require.NoError(t, err)

	runID, err := sess.Start("sim", "test")
	require.NoError(t, err)
	assert.Equal(t, StateRecording, sess.State())
	assert.Equal(t, runID, sf.ActiveRunID())

	rep, err := r.RunFullSolve(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Finish(rep))
	assert.Equal(t, StateEnded, sess.State())
	assert.False(t, sf.HasActiveRun())
	assert.Equal(t, runID, sf.LastRunID())

	run, err := storage.NewRunRepository(db).Get(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "done", run.State)
	assert.Equal(t, rep.Executed, run.Executed)
	require.NotNil(t, run.Facelets)
	assert.Equal(t, rep.Facelets, *run.Facelets)
	require.NotNil(t, run.FinalOrientation)
	assert.Equal(t, rep.Orientation.String(), *run.FinalOrientation)

	moves, err := storage.NewMoveRepository(db).Count(runID)
	require.NoError(t, err)
	assert.Equal(t, rep.Executed, moves)
	assert.Equal(t, rep.Executed, sess.MoveCount())

	readings, err := storage.NewReadingRepository(db).GetByRun(runID)
	require.NoError(t, err)
	assert.Len(t, readings, mindcuber.FaceletCount)
	assert.True(t, storage.Colors(readings).Complete())

	orients, err := storage.NewOrientationRepository(db).Count(runID)
	require.NoError(t, err)
	assert.Positive(t, orients)

	states, err := storage.NewStateRepository(db).GetByRun(runID)
	require.NoError(t, err)
	var names []string
	for _, s := range states {
		names = append(names, s.State)
	}
	assert.Equal(t, []string{"scanning", "resolving", "solving", "executing", "done"}, names)
}

func TestSessionRecordsAbort(t *testing.T) {
	db, sf := setup(t)
	sess := NewSession(db, sf, zerolog.Nop())

	rig := sim.New(fastCalibration(), sim.WithScramble(4, 8))
	opts := append([]mindcuber.Option{mindcuber.WithCalibration(fastCalibration())}, sess.Options()...)
	r, err := mindcuber.New(rig, rig, rig.Resolver(), rig.Solver(), opts...)
	require.NoError(t, err)

	runID, err := sess.Start("sim", "")
	require.NoError(t, err)

	rig.Fail(mindcuber.AxisTurntable, errors.New("stalled"))
	rep, err := r.RunFullSolve(context.Background())
	require.Error(t, err)
	require.NoError(t, sess.Finish(rep))

	run, err := storage.NewRunRepository(db).Get(runID)
	require.NoError(t, err)
	assert.Equal(t, "aborted", run.State)
	require.NotNil(t, run.Error)
	assert.Contains(t, *run.Error, "stalled")
}

func TestSessionStartTwice(t *testing.T) {
	db, _ := setup(t)
	sess := NewSession(db, nil, zerolog.Nop())

	_, err := sess.Start("sim", "")
	require.NoError(t, err)
	_, err = sess.Start("sim", "")
	assert.Error(t, err)
}

func TestFinishWithoutStart(t *testing.T) {
	db, _ := setup(t)
	sess := NewSession(db, nil, zerolog.Nop())
	assert.Error(t, sess.Finish(nil))
}

func TestRecoverInterrupted(t *testing.T) {
	db, sf := setup(t)
	first := NewSession(db, sf, zerolog.Nop())
	runID, err := first.Start("sim", "")
	require.NoError(t, err)

	// A new process reloads the state file and finds the run still active.
	reloaded, err := NewStateFile(sf.path)
	require.NoError(t, err)
	require.True(t, reloaded.HasActiveRun())

	second := NewSession(db, reloaded, zerolog.Nop())
	got, err := second.RecoverInterrupted()
	require.NoError(t, err)
	assert.Equal(t, runID, got)
	assert.False(t, reloaded.HasActiveRun())

	run, err := storage.NewRunRepository(db).Get(runID)
	require.NoError(t, err)
	assert.Equal(t, "aborted", run.State)
	require.NotNil(t, run.Error)
	assert.Equal(t, "interrupted", *run.Error)
	assert.NotNil(t, run.EndedAt)

	got, err = second.RecoverInterrupted()
	require.NoError(t, err)
	assert.Empty(t, got)
}
