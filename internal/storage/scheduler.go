package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/planner"
)

// Scheduler places programs on the calendar and persists the result.
type Scheduler struct {
	store *Store
	log   *slog.Logger
}

// NewScheduler creates a Scheduler over store.
func NewScheduler(store *Store, log *slog.Logger) *Scheduler {
	return &Scheduler{store: store, log: log}
}

// Schedule computes the full placement of the program and only then
// replaces its stored entries. Any failure leaves the stored schedule as it
// was.
func (s *Scheduler) Schedule(ctx context.Context, ns, programID string, start models.Date, weekdays planner.WeekdaySet) ([]models.ScheduledEntry, error) {
	program, err := s.store.GetProgram(ctx, ns, programID)
	if err != nil {
		return nil, err
	}

	entries, err := planner.Place(*program, start, weekdays)
	if err != nil {
		s.log.Warn("schedule placement failed", "program", programID, "error", err)
		return nil, err
	}

	if err := s.store.ReplaceProgramSchedule(ctx, ns, programID, entries); err != nil {
		return nil, fmt.Errorf("replacing schedule for %s: %w", programID, err)
	}
	s.log.Info("program scheduled", "program", programID, "start", start, "entries", len(entries))
	return entries, nil
}

// Today derives the today view for ns from its stored schedule, history and
// program library.
func (s *Scheduler) Today(ctx context.Context, ns string, day models.Date) (planner.TodayView, error) {
	schedule, history, lookup, err := s.snapshot(ctx, ns)
	if err != nil {
		return planner.TodayView{}, err
	}
	return planner.Today(schedule, history, day, lookup), nil
}

// Month derives the calendar for one month of ns.
func (s *Scheduler) Month(ctx context.Context, ns string, year int, month time.Month, today models.Date) (planner.MonthView, error) {
	schedule, history, _, err := s.snapshot(ctx, ns)
	if err != nil {
		return planner.MonthView{}, err
	}
	return planner.Month(schedule, history, year, month, today), nil
}

func (s *Scheduler) snapshot(ctx context.Context, ns string) ([]models.ScheduledEntry, []models.CompletedWorkout, planner.ProgramLookup, error) {
	schedule, err := s.store.ListSchedule(ctx, ns)
	if err != nil {
		return nil, nil, nil, err
	}
	history, err := s.store.ListHistory(ctx, ns)
	if err != nil {
		return nil, nil, nil, err
	}
	programs, err := s.store.ListPrograms(ctx, ns)
	if err != nil {
		return nil, nil, nil, err
	}
	byID := make(map[string]*models.Program, len(programs))
	for i := range programs {
		byID[programs[i].ID] = &programs[i]
	}
	lookup := func(id string) (*models.Program, bool) {
		p, ok := byID[id]
		return p, ok
	}
	return schedule, history, lookup, nil
}
