package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run represents one solve attempt in the database.
type Run struct {
	RunID            string
	StartedAt        time.Time
	EndedAt          *time.Time
	DurationMs       *int64
	State            string
	Backend          *string
	Facelets         *string
	Solution         *string
	Executed         int
	Error            *string
	FinalOrientation *string
	Notes            *string
}

// RunResult is the outcome written when a run ends.
type RunResult struct {
	State            string
	Facelets         string
	Solution         string
	Executed         int
	Error            string
	FinalOrientation string
}

// timeFormat has fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// RunRepository provides CRUD operations for runs.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create creates a new run and returns its ID.
func (r *RunRepository) Create(backend, notes string) (string, error) {
	id := uuid.New().String()
	startedAt := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO runs (run_id, started_at, state, backend, notes)
		VALUES (?, ?, ?, ?, ?)
	`, id, startedAt.Format(timeFormat), "idle", nullable(backend), nullable(notes))
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	return id, nil
}

// SetState records the latest state of a run in progress.
func (r *RunRepository) SetState(runID, state string) error {
	_, err := r.db.Exec("UPDATE runs SET state = ? WHERE run_id = ?", state, runID)
	if err != nil {
		return fmt.Errorf("failed to update run state: %w", err)
	}
	return nil
}

// Finish marks a run as ended with its result.
func (r *RunRepository) Finish(runID string, res RunResult) error {
	endedAt := time.Now().UTC()

	var startedAtStr string
	err := r.db.QueryRow("SELECT started_at FROM runs WHERE run_id = ?", runID).Scan(&startedAtStr)
	if err != nil {
		return fmt.Errorf("failed to get run start time: %w", err)
	}

	startedAt, err := time.Parse(timeFormat, startedAtStr)
	if err != nil {
		return fmt.Errorf("failed to parse start time: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE runs
		SET ended_at = ?, duration_ms = ?, state = ?, facelets = ?, solution = ?,
		    executed = ?, error = ?, final_orientation = ?
		WHERE run_id = ?
	`, endedAt.Format(timeFormat), endedAt.Sub(startedAt).Milliseconds(), res.State,
		nullable(res.Facelets), nullable(res.Solution), res.Executed, nullable(res.Error),
		nullable(res.FinalOrientation), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

const runColumns = `run_id, started_at, ended_at, duration_ms, state, backend, facelets, solution,
	executed, error, final_orientation, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var startedAtStr string
	var endedAtStr sql.NullString

	err := row.Scan(
		&run.RunID, &startedAtStr, &endedAtStr, &run.DurationMs, &run.State,
		&run.Backend, &run.Facelets, &run.Solution, &run.Executed, &run.Error,
		&run.FinalOrientation, &run.Notes,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, _ = time.Parse(timeFormat, startedAtStr)
	if endedAtStr.Valid {
		t, _ := time.Parse(timeFormat, endedAtStr.String)
		run.EndedAt = &t
	}
	return &run, nil
}

// Get retrieves a run by ID. It returns nil when the run does not exist.
func (r *RunRepository) Get(runID string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetLast retrieves the most recent run.
func (r *RunRepository) GetLast() (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}
	return run, nil
}

// FindByPrefix resolves an abbreviated run ID.
func (r *RunRepository) FindByPrefix(prefix string) (*Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs WHERE run_id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// List retrieves recent runs, newest first.
func (r *RunRepository) List(limit int) ([]Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// Delete deletes a run and all related data (cascading).
func (r *RunRepository) Delete(runID string) error {
	_, err := r.db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
