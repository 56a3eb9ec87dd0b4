package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/kinetic/internal/models"
)

// ErrInvalidProgram wraps every program validation failure.
var ErrInvalidProgram = errors.New("invalid program")

// NormalizeProgram trims names, defaults empty units to reps and checks the
// program can be saved: it needs a name and at least one training day, and
// every exercise needs a name, between one and models.MaxSets sets and a
// known unit.
func NormalizeProgram(p *models.Program) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProgram)
	}
	if len(p.Workouts) == 0 {
		return fmt.Errorf("%w: at least one workout is required", ErrInvalidProgram)
	}
	for i := range p.Workouts {
		w := &p.Workouts[i]
		w.Name = strings.TrimSpace(w.Name)
		if w.Exercises == nil {
			w.Exercises = []models.ExerciseSpec{}
		}
		for j := range w.Exercises {
			ex := &w.Exercises[j]
			ex.Name = strings.TrimSpace(ex.Name)
			if ex.Name == "" {
				return fmt.Errorf("%w: workout %d exercise %d has no name", ErrInvalidProgram, i+1, j+1)
			}
			if ex.Sets < 1 {
				return fmt.Errorf("%w: %q needs at least one set", ErrInvalidProgram, ex.Name)
			}
			if ex.Sets > models.MaxSets {
				return fmt.Errorf("%w: %q has more than %d sets", ErrInvalidProgram, ex.Name, models.MaxSets)
			}
			if ex.MetricUnit == "" {
				ex.MetricUnit = models.UnitReps
			}
			if !ex.MetricUnit.Valid() {
				return fmt.Errorf("%w: %q has unknown unit %q", ErrInvalidProgram, ex.Name, ex.MetricUnit)
			}
		}
	}
	if p.TrainingDays() == 0 {
		return fmt.Errorf("%w: at least one workout needs an exercise", ErrInvalidProgram)
	}
	return nil
}

// ListPrograms returns the namespace's program library.
func (s *Store) ListPrograms(ctx context.Context, ns string) ([]models.Program, error) {
	return Load(ctx, s.kv, ns, KeyPrograms, []models.Program{})
}

// GetProgram returns the program with the given ID.
func (s *Store) GetProgram(ctx context.Context, ns, id string) (*models.Program, error) {
	programs, err := s.ListPrograms(ctx, ns)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		if programs[i].ID == id {
			return &programs[i], nil
		}
	}
	return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
}

// CreateProgram validates p, assigns it a fresh ID and appends it.
func (s *Store) CreateProgram(ctx context.Context, ns string, p models.Program) (models.Program, error) {
	if err := NormalizeProgram(&p); err != nil {
		return models.Program{}, err
	}
	p.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	programs, err := s.ListPrograms(ctx, ns)
	if err != nil {
		return models.Program{}, err
	}
	programs = append(programs, p)
	if err := Save(ctx, s.kv, ns, KeyPrograms, programs); err != nil {
		return models.Program{}, err
	}
	return p, nil
}

// PutProgram stores p under its existing ID, replacing any program with
// that ID. An empty ID gets a fresh one. It returns true when a program
// was replaced.
func (s *Store) PutProgram(ctx context.Context, ns string, p models.Program) (models.Program, bool, error) {
	if err := NormalizeProgram(&p); err != nil {
		return models.Program{}, false, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	programs, err := s.ListPrograms(ctx, ns)
	if err != nil {
		return models.Program{}, false, err
	}
	replaced := false
	for i := range programs {
		if programs[i].ID == p.ID {
			programs[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		programs = append(programs, p)
	}
	if err := Save(ctx, s.kv, ns, KeyPrograms, programs); err != nil {
		return models.Program{}, false, err
	}
	return p, replaced, nil
}

// DeleteProgram removes the program and then its schedule entries. The two
// writes are independent; a failure between them leaves orphaned entries
// that the today view reports as missing.
func (s *Store) DeleteProgram(ctx context.Context, ns, id string) error {
	s.mu.Lock()
	programs, err := s.ListPrograms(ctx, ns)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	kept := programs[:0]
	found := false
	for _, p := range programs {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	err = Save(ctx, s.kv, ns, KeyPrograms, kept)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.RemoveProgramSchedule(ctx, ns, id)
}
