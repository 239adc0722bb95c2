package storage

import (
	"database/sql"
	"fmt"

	"github.com/SeamusWaldron/mindcuber"
)

// ReadingRecord is one raw color reading from a scan.
type ReadingRecord struct {
	RunID   string
	Step    int
	Facelet int
	Face    int
	Color   mindcuber.RGB
}

// ReadingRepository stores scan readings.
type ReadingRepository struct {
	db *DB
}

// NewReadingRepository creates a new reading repository.
func NewReadingRepository(db *DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// CreateBatch stores readings in a single transaction.
func (r *ReadingRepository) CreateBatch(runID string, readings []mindcuber.ReadingEvent) error {
	return r.db.Transaction(func(tx *sql.Tx) error {
		for _, ev := range readings {
			_, err := tx.Exec(`
				INSERT INTO readings (run_id, step, facelet, face, r, g, b)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, runID, ev.Step, ev.Index, ev.Face, ev.Color.R, ev.Color.G, ev.Color.B)
			if err != nil {
				return fmt.Errorf("failed to create reading %d: %w", ev.Step, err)
			}
		}
		return nil
	})
}

// GetByRun returns the readings of a run in scan order.
func (r *ReadingRepository) GetByRun(runID string) ([]ReadingRecord, error) {
	rows, err := r.db.Query(`
		SELECT run_id, step, facelet, face, r, g, b
		FROM readings
		WHERE run_id = ?
		ORDER BY step
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get readings: %w", err)
	}
	defer rows.Close()

	var out []ReadingRecord
	for rows.Next() {
		var rec ReadingRecord
		err := rows.Scan(&rec.RunID, &rec.Step, &rec.Facelet, &rec.Face, &rec.Color.R, &rec.Color.G, &rec.Color.B)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// Colors rebuilds the facelet color map from stored readings.
func Colors(records []ReadingRecord) mindcuber.FaceletColors {
	colors := make(mindcuber.FaceletColors, len(records))
	for _, rec := range records {
		colors[rec.Facelet] = rec.Color
	}
	return colors
}
