package storage

import (
	"fmt"

	"github.com/SeamusWaldron/mindcuber"
)

// MoveRecord represents an executed solver move in the database.
type MoveRecord struct {
	MoveID      int64
	RunID       string
	MoveIndex   int
	TsMs        int64
	Notation    string
	Face        string
	Turns       int
	Direction   int
	Plan        string
	Target      int
	Orientation string
	DurationMs  int64
}

// MoveRepository provides CRUD operations for moves.
type MoveRepository struct {
	db *DB
}

// NewMoveRepository creates a new move repository.
func NewMoveRepository(db *DB) *MoveRepository {
	return &MoveRepository{db: db}
}

// Create stores a move event and returns its ID.
func (r *MoveRepository) Create(runID string, tsMs int64, ev mindcuber.MoveEvent) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO moves (run_id, move_index, ts_ms, notation, face, turns, direction, plan, target, orientation, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, ev.Index, tsMs, ev.Move.Notation(), string(ev.Move.Face), ev.Move.Turns, int(ev.Move.Direction),
		ev.Plan.String(), ev.Target, ev.Orientation.String(), ev.Duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("failed to create move: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get move ID: %w", err)
	}

	return id, nil
}

// GetByRun retrieves all moves for a run in order.
func (r *MoveRepository) GetByRun(runID string) ([]MoveRecord, error) {
	rows, err := r.db.Query(`
		SELECT move_id, run_id, move_index, ts_ms, notation, face, turns, direction, plan, target, orientation, duration_ms
		FROM moves
		WHERE run_id = ?
		ORDER BY move_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		err := rows.Scan(&m.MoveID, &m.RunID, &m.MoveIndex, &m.TsMs, &m.Notation, &m.Face,
			&m.Turns, &m.Direction, &m.Plan, &m.Target, &m.Orientation, &m.DurationMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		moves = append(moves, m)
	}

	return moves, rows.Err()
}

// Count returns the number of moves executed in a run.
func (r *MoveRepository) Count(runID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM moves WHERE run_id = ?", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count moves: %w", err)
	}
	return count, nil
}
