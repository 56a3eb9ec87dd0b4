// Package importer loads data from outside the service: browser
// localStorage dumps of the original web app and program definition files.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/storage"
)

// KeyPrefix prefixes every localStorage key the web app writes.
const KeyPrefix = "kinetic_fitness_"

// Stats tracks import progress.
type Stats struct {
	ProgramsImported int
	ProgramsReplaced int
	ProgramsSkipped  int

	EntriesImported int

	WorkoutsImported   int
	WorkoutsDuplicated int

	ProfileImported bool

	// UnknownKeys lists dump keys that were not imported.
	UnknownKeys []string
	// Warnings lists records that were skipped or repaired.
	Warnings []string
}

func (s *Stats) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Importer writes imported data into one identity's store.
type Importer struct {
	store  *storage.Store
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer. With dryRun set everything is decoded and
// validated but nothing is written.
func New(store *storage.Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun}
}

// ImportDump reads a JSON object of localStorage keys to values and imports
// the profile, programs, schedule and history it finds into ns. Values may
// be the raw JSON or the JSON-encoded string localStorage holds.
// Programs are imported before the schedule so entries resolve.
func (imp *Importer) ImportDump(ctx context.Context, ns string, r io.Reader) (*Stats, error) {
	var dump map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return &imp.stats, fmt.Errorf("decoding dump: %w", err)
	}

	values := map[string]json.RawMessage{}
	for key, raw := range dump {
		name := strings.TrimPrefix(key, KeyPrefix)
		if !isKnownKey(name) {
			imp.stats.UnknownKeys = append(imp.stats.UnknownKeys, key)
			continue
		}
		value, err := unwrapString(raw)
		if err != nil {
			return &imp.stats, fmt.Errorf("reading %s: %w", key, err)
		}
		values[name] = value
	}
	sort.Strings(imp.stats.UnknownKeys)

	if raw, ok := values[storage.KeyProfile]; ok {
		if err := imp.importProfile(ctx, ns, raw); err != nil {
			return &imp.stats, fmt.Errorf("importing profile: %w", err)
		}
	}
	if raw, ok := values[storage.KeyPrograms]; ok {
		if err := imp.importPrograms(ctx, ns, raw); err != nil {
			return &imp.stats, fmt.Errorf("importing programs: %w", err)
		}
	}
	if raw, ok := values[storage.KeySchedule]; ok {
		if err := imp.importSchedule(ctx, ns, raw); err != nil {
			return &imp.stats, fmt.Errorf("importing schedule: %w", err)
		}
	}
	if raw, ok := values[storage.KeyHistory]; ok {
		if err := imp.importHistory(ctx, ns, raw); err != nil {
			return &imp.stats, fmt.Errorf("importing history: %w", err)
		}
	}

	imp.log.Info("dump imported",
		"identity", ns,
		"programs", imp.stats.ProgramsImported,
		"entries", imp.stats.EntriesImported,
		"workouts", imp.stats.WorkoutsImported,
		"dry_run", imp.dryRun,
	)
	return &imp.stats, nil
}

func isKnownKey(name string) bool {
	for _, k := range storage.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// unwrapString returns the JSON inside raw when raw is a JSON string.
func unwrapString(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, `"`) {
		return raw, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, err
	}
	return json.RawMessage(inner), nil
}

func (imp *Importer) importProfile(ctx context.Context, ns string, raw json.RawMessage) error {
	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if err := p.Normalize(); err != nil {
		imp.stats.warn("profile: %v; using %s", err, models.WeightLbs)
		p.WeightUnit = models.WeightLbs
	}
	if !imp.dryRun {
		if _, err := imp.store.PutProfile(ctx, ns, p); err != nil {
			return err
		}
	}
	imp.stats.ProfileImported = true
	return nil
}

func (imp *Importer) importPrograms(ctx context.Context, ns string, raw json.RawMessage) error {
	var programs []models.Program
	if err := json.Unmarshal(raw, &programs); err != nil {
		return err
	}
	for _, p := range programs {
		imp.repairExercises(&p)
		if err := storage.NormalizeProgram(&p); err != nil {
			imp.stats.ProgramsSkipped++
			imp.stats.warn("program %q: %v", p.Name, err)
			continue
		}
		if imp.dryRun {
			imp.stats.ProgramsImported++
			continue
		}
		_, replaced, err := imp.store.PutProgram(ctx, ns, p)
		if err != nil {
			return err
		}
		imp.stats.ProgramsImported++
		if replaced {
			imp.stats.ProgramsReplaced++
		}
	}
	return nil
}

// repairExercises clamps set counts to models.MaxSets and maps free-form
// units onto known ones, falling back to reps.
func (imp *Importer) repairExercises(p *models.Program) {
	for i := range p.Workouts {
		for j := range p.Workouts[i].Exercises {
			ex := &p.Workouts[i].Exercises[j]
			if ex.Sets > models.MaxSets {
				imp.stats.warn("%s / %s: %d sets, using %d", p.Name, ex.Name, ex.Sets, models.MaxSets)
				ex.Sets = models.MaxSets
			}
			if ex.MetricUnit == "" {
				continue
			}
			unit, err := models.ParseMetricUnit(string(ex.MetricUnit))
			if err != nil {
				imp.stats.warn("%s / %s: unknown unit %q, using reps", p.Name, ex.Name, ex.MetricUnit)
				unit = models.UnitReps
			}
			ex.MetricUnit = unit
		}
	}
}

func (imp *Importer) importSchedule(ctx context.Context, ns string, raw json.RawMessage) error {
	var entries []models.ScheduledEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}

	byProgram := map[string][]models.ScheduledEntry{}
	var order []string
	for _, e := range entries {
		if e.Date.IsZero() || e.ProgramID == "" {
			imp.stats.warn("schedule entry %q has no date or program, skipped", e.WorkoutName)
			continue
		}
		if _, seen := byProgram[e.ProgramID]; !seen {
			order = append(order, e.ProgramID)
		}
		byProgram[e.ProgramID] = append(byProgram[e.ProgramID], e)
	}

	for _, id := range order {
		if _, err := imp.store.GetProgram(ctx, ns, id); errors.Is(err, storage.ErrNotFound) && !imp.dryRun {
			imp.stats.warn("schedule references unknown program %s", id)
		}
		if !imp.dryRun {
			if err := imp.store.ReplaceSchedule(ctx, ns, id, byProgram[id]); err != nil {
				return err
			}
		}
		imp.stats.EntriesImported += len(byProgram[id])
	}
	return nil
}

func (imp *Importer) importHistory(ctx context.Context, ns string, raw json.RawMessage) error {
	var history []models.CompletedWorkout
	if err := json.Unmarshal(raw, &history); err != nil {
		return err
	}
	for _, w := range history {
		if w.ID != "" {
			_, err := imp.store.GetWorkout(ctx, ns, w.ID)
			if err == nil {
				imp.stats.WorkoutsDuplicated++
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}
		if w.Exercises == nil {
			w.Exercises = []models.ExercisePerformance{}
		}
		if !imp.dryRun {
			if _, err := imp.store.AppendHistory(ctx, ns, w); err != nil {
				return err
			}
		}
		imp.stats.WorkoutsImported++
	}
	return nil
}
