package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadTimelineOrdersEvents(t *testing.T) {
	db := openTestDB(t)
	runID, err := storage.NewRunRepository(db).Create("sim", "")
	require.NoError(t, err)

	states := storage.NewStateRepository(db)
	require.NoError(t, states.Create(runID, 0, "scanning", ""))
	require.NoError(t, states.Create(runID, 300, "executing", ""))
	require.NoError(t, states.Create(runID, 900, "aborted", "stalled"))

	_, err = storage.NewOrientationRepository(db).Create(runID, 400, "flip", "FBDLUR")
	require.NoError(t, err)

	_, err = storage.NewMoveRepository(db).Create(runID, 500, mindcuber.MoveEvent{
		Index:       0,
		Total:       1,
		Move:        mindcuber.Move{Face: mindcuber.FaceR, Turns: 1, Direction: mindcuber.CW},
		Orientation: mindcuber.NewOrientation(),
	})
	require.NoError(t, err)

	events, err := loadTimeline(db, runID)
	require.NoError(t, err)
	require.Len(t, events, 5)

	var ts []int64
	for _, ev := range events {
		ts = append(ts, ev.tsMs)
	}
	assert.Equal(t, []int64{0, 300, 400, 500, 900}, ts)
	assert.Contains(t, events[2].text, "FBDLUR")
	assert.Contains(t, events[3].text, "move 1 R")
	assert.Equal(t, "state aborted: stalled", events[4].text)
}

func TestFindRun(t *testing.T) {
	db := openTestDB(t)
	repo := storage.NewRunRepository(db)

	_, err := findRun(db, nil, true)
	assert.EqualError(t, err, "no runs found")

	id, err := repo.Create("sim", "first")
	require.NoError(t, err)

	run, err := findRun(db, []string{id[:8]}, false)
	require.NoError(t, err)
	assert.Equal(t, id, run.RunID)

	run, err = findRun(db, nil, true)
	require.NoError(t, err)
	assert.Equal(t, id, run.RunID)

	_, err = findRun(db, []string{"zzzz"}, false)
	assert.EqualError(t, err, "run not found: zzzz")

	_, err = findRun(db, nil, false)
	assert.Error(t, err)
}

func TestCountMoves(t *testing.T) {
	assert.Equal(t, 0, countMoves(""))
	assert.Equal(t, 3, countMoves("R U' F2"))
	assert.Equal(t, 2, countMoves("  R   U  "))
}
