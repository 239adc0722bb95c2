// Package recorder persists robot runs to the history database.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AppState represents the persistent application state.
type AppState struct {
	ActiveRunID string `json:"active_run_id,omitempty"`
	LastRunID   string `json:"last_run_id,omitempty"`
	Backend     string `json:"backend,omitempty"`
}

// StateFile manages the application state file. A run left active in the
// file was interrupted before it could be finished.
type StateFile struct {
	path  string
	state AppState
}

// DefaultStatePath returns the default state file path.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".mindcuber", "state.json"), nil
}

// NewStateFile creates a new state file manager.
func NewStateFile(path string) (*StateFile, error) {
	sf := &StateFile{path: path}

	if err := sf.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return sf, nil
}

// Load loads the state from disk.
func (sf *StateFile) Load() error {
	data, err := os.ReadFile(sf.path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &sf.state)
}

// Save saves the state to disk.
func (sf *StateFile) Save() error {
	data, err := json.MarshalIndent(sf.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(sf.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(sf.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// State returns the current state.
func (sf *StateFile) State() AppState {
	return sf.state
}

// SetActiveRun records the run in progress.
func (sf *StateFile) SetActiveRun(runID, backend string) error {
	sf.state.ActiveRunID = runID
	sf.state.Backend = backend
	return sf.Save()
}

// ClearActiveRun moves the active run to LastRunID.
func (sf *StateFile) ClearActiveRun() error {
	if sf.state.ActiveRunID != "" {
		sf.state.LastRunID = sf.state.ActiveRunID
	}
	sf.state.ActiveRunID = ""
	return sf.Save()
}

// HasActiveRun returns true if a run was started and not finished.
func (sf *StateFile) HasActiveRun() bool {
	return sf.state.ActiveRunID != ""
}

// ActiveRunID returns the active run ID.
func (sf *StateFile) ActiveRunID() string {
	return sf.state.ActiveRunID
}

// LastRunID returns the most recently finished run ID.
func (sf *StateFile) LastRunID() string {
	return sf.state.LastRunID
}
