// Package session runs the active-workout state machine: one in-progress
// workout per identity, recorded set by set and committed to history once
// the user rates it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/kinetic/internal/models"
)

var (
	ErrNoSession        = errors.New("no workout in progress")
	ErrSessionActive    = errors.New("a workout is already in progress")
	ErrInvalidState     = errors.New("operation not allowed in the current session state")
	ErrInvalidIntensity = errors.New("intensity must be between 1 and 10")
	ErrSetOutOfRange    = errors.New("exercise or set does not exist")
	ErrWorkoutNotFound  = errors.New("workout day does not exist in the program")
	ErrRestDay          = errors.New("rest days cannot be started as a workout")
	ErrInvalidUnit      = errors.New("unknown metric unit")
	ErrInvalidStatus    = errors.New("unknown set status")
)

// State is the lifecycle state of a session slot.
type State string

const (
	StateIdle             State = "idle"
	StateActive           State = "active"
	StateAwaitingFeedback State = "awaiting_feedback"
)

// Policy decides what Start does when a session is already in progress.
type Policy string

const (
	// PolicyReplace discards the unfinished session and starts the new one.
	PolicyReplace Policy = "replace"
	// PolicyReject refuses to start with ErrSessionActive.
	PolicyReject Policy = "reject"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool { return p == PolicyReplace || p == PolicyReject }

// History is where finished sessions are committed.
type History interface {
	AppendHistory(ctx context.Context, ns string, w models.CompletedWorkout) (models.CompletedWorkout, error)
}

// Session is a snapshot of one identity's in-progress workout.
type Session struct {
	State     State                   `json:"state"`
	StartedAt time.Time               `json:"startedAt"`
	Workout   models.CompletedWorkout `json:"workout"`

	// committing is set while the workout is being written to history.
	committing bool
}

func (s *Session) state() string {
	if s.committing {
		return "saving"
	}
	return string(s.State)
}

func (s *Session) clone() Session {
	c := *s
	c.Workout.Exercises = make([]models.ExercisePerformance, len(s.Workout.Exercises))
	for i, ex := range s.Workout.Exercises {
		ex.Performance = append([]models.SetPerformance(nil), ex.Performance...)
		c.Workout.Exercises[i] = ex
	}
	if s.Workout.WorkoutIndex != nil {
		idx := *s.Workout.WorkoutIndex
		c.Workout.WorkoutIndex = &idx
	}
	return c
}

// Manager holds one session slot per identity.
type Manager struct {
	mu      sync.Mutex
	slots   map[string]*Session
	history History
	policy  Policy
	log     *slog.Logger
	now     func() time.Time
}

// NewManager creates a Manager that commits finished sessions to history.
// An unknown policy falls back to PolicyReplace.
func NewManager(history History, policy Policy, log *slog.Logger) *Manager {
	if !policy.Valid() {
		policy = PolicyReplace
	}
	return &Manager{
		slots:   map[string]*Session{},
		history: history,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// Policy returns the configured replace policy.
func (m *Manager) Policy() Policy { return m.policy }

// Start opens a session for workout day index of program. A zero date means
// today. Every set starts out missed.
func (m *Manager) Start(ns string, program models.Program, index int, date models.Date) (Session, error) {
	day, ok := program.Workout(index)
	if !ok {
		return Session{}, fmt.Errorf("%s day %d: %w", program.Name, index, ErrWorkoutNotFound)
	}
	if day.IsRest() {
		return Session{}, ErrRestDay
	}
	if date.IsZero() {
		date = models.DateOf(m.now())
	}

	exercises := make([]models.ExercisePerformance, len(day.Exercises))
	for i, spec := range day.Exercises {
		exercises[i] = models.NewPerformance(spec)
	}
	idx := index
	s := &Session{
		State:     StateActive,
		StartedAt: m.now(),
		Workout: models.CompletedWorkout{
			ID:           uuid.NewString(),
			Name:         fmt.Sprintf("%s: %s", program.Name, day.Name),
			Date:         date,
			Exercises:    exercises,
			ProgramID:    program.ID,
			WorkoutIndex: &idx,
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.slots[ns]; ok {
		if m.policy == PolicyReject {
			return Session{}, ErrSessionActive
		}
		m.log.Warn("replacing unfinished session", "identity", ns, "session", prev.Workout.Name, "state", prev.State)
	}
	m.slots[ns] = s
	return s.clone(), nil
}

// Current returns the identity's session.
func (m *Manager) Current(ns string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[ns]
	if !ok {
		return Session{}, ErrNoSession
	}
	return s.clone(), nil
}

// SetStatus marks one set done or missed.
func (m *Manager) SetStatus(ns string, exercise, set int, status models.SetStatus) (Session, error) {
	if !status.Valid() {
		return Session{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return m.updateSet(ns, exercise, set, func(p *models.SetPerformance) {
		p.Status = status
	})
}

// RecordSet stores the weight and reps entered for one set. Nil, zero and
// NaN values are stored as not entered.
func (m *Manager) RecordSet(ns string, exercise, set int, weight, reps *float64) (Session, error) {
	weight, reps = measurement(weight), measurement(reps)
	return m.updateSet(ns, exercise, set, func(p *models.SetPerformance) {
		p.Weight = weight
		p.Reps = reps
	})
}

// EditMetric changes an exercise's target for this session only.
func (m *Manager) EditMetric(ns string, exercise int, value string, unit models.MetricUnit) (Session, error) {
	if !unit.Valid() {
		return Session{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return m.withActive(ns, func(s *Session) error {
		if exercise < 0 || exercise >= len(s.Workout.Exercises) {
			return ErrSetOutOfRange
		}
		s.Workout.Exercises[exercise].MetricValue = value
		s.Workout.Exercises[exercise].MetricUnit = unit
		return nil
	})
}

// Finish moves an active session to awaiting feedback.
func (m *Manager) Finish(ns string) (Session, error) {
	return m.transition(ns, StateActive, StateAwaitingFeedback)
}

// Resume returns a session awaiting feedback to active without losing any
// recorded sets.
func (m *Manager) Resume(ns string) (Session, error) {
	return m.transition(ns, StateAwaitingFeedback, StateActive)
}

// SubmitFeedback rates the finished session, marks it completed, appends it
// to history and clears the slot. The lock is released during the history
// write; the slot is only cleared if it still holds the same session, and
// is kept when the append fails.
func (m *Manager) SubmitFeedback(ctx context.Context, ns string, intensity int, notes string) (models.CompletedWorkout, error) {
	if intensity < 1 || intensity > 10 {
		return models.CompletedWorkout{}, ErrInvalidIntensity
	}

	m.mu.Lock()
	s, ok := m.slots[ns]
	if !ok {
		m.mu.Unlock()
		return models.CompletedWorkout{}, ErrNoSession
	}
	if s.State != StateAwaitingFeedback || s.committing {
		m.mu.Unlock()
		return models.CompletedWorkout{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.state())
	}
	s.committing = true
	w := s.clone().Workout
	m.mu.Unlock()

	w.Intensity = intensity
	w.Notes = notes
	w.Completed = true

	saved, err := m.history.AppendHistory(ctx, ns, w)

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, same := m.slots[ns]
	same = same && cur.Workout.ID == w.ID
	if err != nil {
		if same {
			cur.committing = false
		}
		return models.CompletedWorkout{}, fmt.Errorf("saving workout: %w", err)
	}
	if same {
		delete(m.slots, ns)
	}
	m.log.Info("workout completed", "identity", ns, "workout", saved.Name, "intensity", intensity)
	return saved, nil
}

// Discard drops the session without writing history.
func (m *Manager) Discard(ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[ns]; !ok {
		return ErrNoSession
	}
	delete(m.slots, ns)
	return nil
}

// Active returns the number of sessions currently held.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *Manager) transition(ns string, from, to State) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[ns]
	if !ok {
		return Session{}, ErrNoSession
	}
	if s.State != from || s.committing {
		return Session{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.state())
	}
	s.State = to
	return s.clone(), nil
}

func (m *Manager) withActive(ns string, fn func(s *Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[ns]
	if !ok {
		return Session{}, ErrNoSession
	}
	if s.State != StateActive {
		return Session{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.state())
	}
	if err := fn(s); err != nil {
		return Session{}, err
	}
	return s.clone(), nil
}

func (m *Manager) updateSet(ns string, exercise, set int, fn func(p *models.SetPerformance)) (Session, error) {
	return m.withActive(ns, func(s *Session) error {
		if exercise < 0 || exercise >= len(s.Workout.Exercises) {
			return ErrSetOutOfRange
		}
		perf := s.Workout.Exercises[exercise].Performance
		if set < 0 || set >= len(perf) {
			return ErrSetOutOfRange
		}
		fn(&perf[set])
		return nil
	})
}

func measurement(v *float64) *float64 {
	if v == nil || *v == 0 || math.IsNaN(*v) {
		return nil
	}
	out := *v
	return &out
}
