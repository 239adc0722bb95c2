package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// OrientationRecord is the orientation after one reorientation primitive.
type OrientationRecord struct {
	OrientationID int64
	RunID         string
	TsMs          int64
	Action        string
	Orientation   string
}

// OrientationRepository provides CRUD operations for orientations.
type OrientationRepository struct {
	db *DB
}

// NewOrientationRepository creates a new orientation repository.
func NewOrientationRepository(db *DB) *OrientationRepository {
	return &OrientationRepository{db: db}
}

// Create creates a new orientation record and returns its ID.
func (r *OrientationRepository) Create(runID string, tsMs int64, action, orientation string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO orientations (run_id, ts_ms, action, orientation)
		VALUES (?, ?, ?, ?)
	`, runID, tsMs, action, orientation)
	if err != nil {
		return 0, fmt.Errorf("failed to create orientation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get orientation ID: %w", err)
	}

	return id, nil
}

// GetByRun retrieves all orientation records for a run.
func (r *OrientationRepository) GetByRun(runID string) ([]OrientationRecord, error) {
	rows, err := r.db.Query(`
		SELECT orientation_id, run_id, ts_ms, action, orientation
		FROM orientations
		WHERE run_id = ?
		ORDER BY ts_ms, orientation_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orientations: %w", err)
	}
	defer rows.Close()

	var out []OrientationRecord
	for rows.Next() {
		var o OrientationRecord
		if err := rows.Scan(&o.OrientationID, &o.RunID, &o.TsMs, &o.Action, &o.Orientation); err != nil {
			return nil, fmt.Errorf("failed to scan orientation: %w", err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}

// Count returns the number of primitives recorded for a run.
func (r *OrientationRepository) Count(runID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM orientations WHERE run_id = ?", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orientations: %w", err)
	}
	return count, nil
}

// GetLast returns the most recent orientation for a run, or nil.
func (r *OrientationRepository) GetLast(runID string) (*OrientationRecord, error) {
	row := r.db.QueryRow(`
		SELECT orientation_id, run_id, ts_ms, action, orientation
		FROM orientations
		WHERE run_id = ?
		ORDER BY ts_ms DESC, orientation_id DESC
		LIMIT 1
	`, runID)

	var o OrientationRecord
	err := row.Scan(&o.OrientationID, &o.RunID, &o.TsMs, &o.Action, &o.Orientation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last orientation: %w", err)
	}

	return &o, nil
}
