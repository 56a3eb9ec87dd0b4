package storage

import (
	"context"
	"fmt"

	"github.com/claude/kinetic/internal/models"
)

// ListSchedule returns every scheduled entry of the namespace.
func (s *Store) ListSchedule(ctx context.Context, ns string) ([]models.ScheduledEntry, error) {
	return Load(ctx, s.kv, ns, KeySchedule, []models.ScheduledEntry{})
}

// ScheduleForProgram returns the entries belonging to one program.
func (s *Store) ScheduleForProgram(ctx context.Context, ns, programID string) ([]models.ScheduledEntry, error) {
	all, err := s.ListSchedule(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := []models.ScheduledEntry{}
	for _, e := range all {
		if e.ProgramID == programID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReplaceSchedule drops every entry of programID and appends entries in
// their place. Entries of other programs are untouched.
func (s *Store) ReplaceSchedule(ctx context.Context, ns, programID string, entries []models.ScheduledEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceSchedule(ctx, ns, programID, entries)
}

// ReplaceProgramSchedule is ReplaceSchedule for a program that must still
// exist. The check and the write happen under one lock, so a concurrent
// DeleteProgram either sees the new entries and removes them or makes this
// call fail with ErrNotFound.
func (s *Store) ReplaceProgramSchedule(ctx context.Context, ns, programID string, entries []models.ScheduledEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	programs, err := s.ListPrograms(ctx, ns)
	if err != nil {
		return err
	}
	for _, p := range programs {
		if p.ID == programID {
			return s.replaceSchedule(ctx, ns, programID, entries)
		}
	}
	return fmt.Errorf("program %s: %w", programID, ErrNotFound)
}

func (s *Store) replaceSchedule(ctx context.Context, ns, programID string, entries []models.ScheduledEntry) error {
	all, err := s.ListSchedule(ctx, ns)
	if err != nil {
		return err
	}
	next := withoutProgram(all, programID)
	next = append(next, entries...)
	return Save(ctx, s.kv, ns, KeySchedule, next)
}

// RemoveProgramSchedule drops every entry of programID.
func (s *Store) RemoveProgramSchedule(ctx context.Context, ns, programID string) error {
	return s.ReplaceSchedule(ctx, ns, programID, nil)
}

func withoutProgram(entries []models.ScheduledEntry, programID string) []models.ScheduledEntry {
	out := make([]models.ScheduledEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProgramID != programID {
			out = append(out, e)
		}
	}
	return out
}
