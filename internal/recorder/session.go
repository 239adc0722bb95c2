package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/storage"
)

// SessionState represents the current state of a recording session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRecording
	StateEnded
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Session records one robot run. Register its Options with the robot, call
// Start before RunFullSolve and Finish with the report afterwards.
type Session struct {
	db        *storage.DB
	stateFile *StateFile
	log       zerolog.Logger

	mu        sync.Mutex
	state     SessionState
	runID     string
	startTime time.Time
	moveCount int
	readings  []mindcuber.ReadingEvent
	err       error

	runRepo         *storage.RunRepository
	moveRepo        *storage.MoveRepository
	orientationRepo *storage.OrientationRepository
	readingRepo     *storage.ReadingRepository
	stateRepo       *storage.StateRepository
}

// NewSession creates a new session manager. stateFile may be nil.
func NewSession(db *storage.DB, stateFile *StateFile, log zerolog.Logger) *Session {
	return &Session{
		db:              db,
		stateFile:       stateFile,
		log:             log,
		state:           StateIdle,
		runRepo:         storage.NewRunRepository(db),
		moveRepo:        storage.NewMoveRepository(db),
		orientationRepo: storage.NewOrientationRepository(db),
		readingRepo:     storage.NewReadingRepository(db),
		stateRepo:       storage.NewStateRepository(db),
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunID returns the current run ID.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// MoveCount returns the number of moves recorded so far.
func (s *Session) MoveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveCount
}

// Options returns the robot options that feed this session.
func (s *Session) Options() []mindcuber.Option {
	return []mindcuber.Option{
		mindcuber.OnStateChange(s.handleState),
		mindcuber.OnPrimitive(s.handlePrimitive),
		mindcuber.OnMove(s.handleMove),
		mindcuber.OnReading(s.handleReading),
	}
}

// RecoverInterrupted finishes a run that a previous process left active.
func (s *Session) RecoverInterrupted() (string, error) {
	if s.stateFile == nil || !s.stateFile.HasActiveRun() {
		return "", nil
	}

	runID := s.stateFile.ActiveRunID()
	run, err := s.runRepo.Get(runID)
	if err != nil {
		return "", err
	}
	if run != nil && run.EndedAt == nil {
		err := s.runRepo.Finish(runID, storage.RunResult{
			State:    mindcuber.StateAborted.String(),
			Error:    "interrupted",
			Executed: run.Executed,
		})
		if err != nil {
			return "", err
		}
		s.log.Warn().Str("run_id", runID).Msg("marked interrupted run as aborted")
	}

	return runID, s.stateFile.ClearActiveRun()
}

// Start starts recording a new run.
func (s *Session) Start(backend, notes string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		return "", fmt.Errorf("run already in progress")
	}

	runID, err := s.runRepo.Create(backend, notes)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	s.runID = runID
	s.startTime = time.Now()
	s.moveCount = 0
	s.readings = nil
	s.err = nil
	s.state = StateRecording

	if s.stateFile != nil {
		if err := s.stateFile.SetActiveRun(runID, backend); err != nil {
			s.log.Warn().Err(err).Msg("state file")
		}
	}

	s.log.Debug().Str("run_id", runID).Msg("recording run")
	return runID, nil
}

// Finish writes the run result. It returns the first error hit while
// recording events, if any.
func (s *Session) Finish(rep *mindcuber.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("no run in progress")
	}

	s.flushReadings()

	res := storage.RunResult{State: mindcuber.StateAborted.String()}
	if rep != nil {
		res = storage.RunResult{
			State:            rep.State.String(),
			Facelets:         rep.Facelets,
			Solution:         mindcuber.FormatMoves(rep.Solution),
			Executed:         rep.Executed,
			FinalOrientation: rep.Orientation.String(),
		}
		if rep.Err != nil {
			res.Error = rep.Err.Error()
		}
	}

	err := s.runRepo.Finish(s.runID, res)
	s.state = StateEnded

	if s.stateFile != nil {
		if serr := s.stateFile.ClearActiveRun(); serr != nil {
			s.log.Warn().Err(serr).Msg("state file")
		}
	}

	return errors.Join(s.err, err)
}

func (s *Session) elapsedMs() int64 {
	return time.Since(s.startTime).Milliseconds()
}

// fail keeps the first recording error. Caller holds mu.
func (s *Session) fail(err error) {
	if err == nil {
		return
	}
	s.log.Warn().Err(err).Str("run_id", s.runID).Msg("record")
	if s.err == nil {
		s.err = err
	}
}

// flushReadings stores buffered readings. Caller holds mu.
func (s *Session) flushReadings() {
	if len(s.readings) == 0 {
		return
	}
	s.fail(s.readingRepo.CreateBatch(s.runID, s.readings))
	s.readings = nil
}

func (s *Session) handleState(ev mindcuber.StateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return
	}

	if ev.Prev == mindcuber.StateScanning {
		s.flushReadings()
	}

	msg := ""
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	s.fail(s.stateRepo.Create(s.runID, s.elapsedMs(), ev.State.String(), msg))
	s.fail(s.runRepo.SetState(s.runID, ev.State.String()))
}

func (s *Session) handlePrimitive(ev mindcuber.PrimitiveEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return
	}

	_, err := s.orientationRepo.Create(s.runID, s.elapsedMs(), ev.Action.String(), ev.Orientation.String())
	s.fail(err)
}

func (s *Session) handleMove(ev mindcuber.MoveEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return
	}

	if _, err := s.moveRepo.Create(s.runID, s.elapsedMs(), ev); err != nil {
		s.fail(err)
		return
	}
	s.moveCount++
}

func (s *Session) handleReading(ev mindcuber.ReadingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return
	}
	s.readings = append(s.readings, ev)
}
