package storage

import "fmt"

// StateRecord is one run state transition.
type StateRecord struct {
	StateID int64
	RunID   string
	TsMs    int64
	State   string
	Error   *string
}

// StateRepository stores run state transitions.
type StateRepository struct {
	db *DB
}

// NewStateRepository creates a new state repository.
func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

// Create records a transition.
func (r *StateRepository) Create(runID string, tsMs int64, state, errMsg string) error {
	_, err := r.db.Exec(`
		INSERT INTO run_states (run_id, ts_ms, state, error)
		VALUES (?, ?, ?, ?)
	`, runID, tsMs, state, nullable(errMsg))
	if err != nil {
		return fmt.Errorf("failed to create run state: %w", err)
	}
	return nil
}

// GetByRun returns the transitions of a run in order.
func (r *StateRepository) GetByRun(runID string) ([]StateRecord, error) {
	rows, err := r.db.Query(`
		SELECT state_id, run_id, ts_ms, state, error
		FROM run_states
		WHERE run_id = ?
		ORDER BY ts_ms, state_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run states: %w", err)
	}
	defer rows.Close()

	var out []StateRecord
	for rows.Next() {
		var s StateRecord
		if err := rows.Scan(&s.StateID, &s.RunID, &s.TsMs, &s.State, &s.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run state: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
