package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	v, err := db.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	// Reapplying is a no-op.
	require.NoError(t, applyMigrations(db.DB))
	v, err = db.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunRepository(db)

	id, err := runs.Create("sim", "first")
	require.NoError(t, err)
	require.NoError(t, runs.SetState(id, "scanning"))

	run, err := runs.Get(id)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "scanning", run.State)
	assert.Nil(t, run.EndedAt)
	require.NotNil(t, run.Backend)
	assert.Equal(t, "sim", *run.Backend)

	require.NoError(t, runs.Finish(id, RunResult{
		State:            "done",
		Facelets:         "UUUUUUUUURRRRRRRRRFFFFFFFFFDDDDDDDDDLLLLLLLLLBBBBBBBBB",
		Solution:         "R U",
		Executed:         2,
		FinalOrientation: "UDFLBR",
	}))

	run, err = runs.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "done", run.State)
	assert.Equal(t, 2, run.Executed)
	require.NotNil(t, run.EndedAt)
	require.NotNil(t, run.DurationMs)
	assert.Nil(t, run.Error)
	assert.Equal(t, "R U", *run.Solution)

	missing, err := runs.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRunListAndPrefix(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunRepository(db)

	first, err := runs.Create("sim", "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := runs.Create("feetech", "")
	require.NoError(t, err)

	list, err := runs.List(10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].RunID)

	last, err := runs.GetLast()
	require.NoError(t, err)
	assert.Equal(t, second, last.RunID)

	found, err := runs.FindByPrefix(first[:8])
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first, found.RunID)

	found, err = runs.FindByPrefix("zzzz")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestChildRecordsCascade(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunRepository(db)
	moves := NewMoveRepository(db)
	orients := NewOrientationRepository(db)
	readings := NewReadingRepository(db)
	states := NewStateRepository(db)

	id, err := runs.Create("sim", "")
	require.NoError(t, err)

	ev := mindcuber.MoveEvent{
		Index:       0,
		Total:       1,
		Move:        mindcuber.Move{Face: mindcuber.FaceR, Turns: 1, Direction: mindcuber.CCW},
		Plan:        mindcuber.Plan{{Kind: mindcuber.ActionRotateCCW}, {Kind: mindcuber.ActionFlip}},
		Target:      270,
		Orientation: mindcuber.NewOrientation(),
		Duration:    1500 * time.Millisecond,
	}
	_, err = moves.Create(id, 10, ev)
	require.NoError(t, err)

	_, err = orients.Create(id, 5, "flip", "FBDLUR")
	require.NoError(t, err)
	_, err = orients.Create(id, 5, "rotate_cw", "FBURDL")
	require.NoError(t, err)

	require.NoError(t, readings.CreateBatch(id, []mindcuber.ReadingEvent{
		{Face: 1, Step: 0, Index: 4, Color: mindcuber.RGB{R: 1, G: 2, B: 3}},
		{Face: 1, Step: 1, Index: 8, Color: mindcuber.RGB{R: 4, G: 5, B: 6}},
	}))
	require.NoError(t, states.Create(id, 1, "scanning", ""))

	got, err := moves.GetByRun(id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "R'", got[0].Notation)
	assert.Equal(t, "rotate_ccw flip", got[0].Plan)
	assert.Equal(t, int64(1500), got[0].DurationMs)

	last, err := orients.GetLast(id)
	require.NoError(t, err)
	assert.Equal(t, "rotate_cw", last.Action)

	recs, err := readings.GetByRun(id)
	require.NoError(t, err)
	colors := Colors(recs)
	assert.Equal(t, mindcuber.RGB{R: 4, G: 5, B: 6}, colors[8])

	require.NoError(t, runs.Delete(id))

	n, err := moves.Count(id)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = orients.Count(id)
	require.NoError(t, err)
	assert.Zero(t, n)
	st, err := states.GetByRun(id)
	require.NoError(t, err)
	assert.Empty(t, st)
}
