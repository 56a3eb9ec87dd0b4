package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MetricUnit is the unit an exercise's target is expressed in.
type MetricUnit string

const (
	UnitReps    MetricUnit = "reps"
	UnitSeconds MetricUnit = "seconds"
	UnitMeters  MetricUnit = "meters"
	UnitFeet    MetricUnit = "feet"
	UnitYards   MetricUnit = "yards"
	UnitMiles   MetricUnit = "miles"
)

// MetricUnits lists every accepted unit in display order.
var MetricUnits = []MetricUnit{UnitReps, UnitSeconds, UnitMeters, UnitFeet, UnitYards, UnitMiles}

// Valid reports whether u is one of the known units.
func (u MetricUnit) Valid() bool {
	for _, known := range MetricUnits {
		if u == known {
			return true
		}
	}
	return false
}

// ParseMetricUnit normalizes s to a MetricUnit. Singular forms and case
// differences are accepted ("Mile" -> miles).
func ParseMetricUnit(s string) (MetricUnit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	u := MetricUnit(s)
	if u.Valid() {
		return u, nil
	}
	if plural := MetricUnit(s + "s"); plural.Valid() {
		return plural, nil
	}
	if s == "foot" {
		return UnitFeet, nil
	}
	return "", fmt.Errorf("unknown metric unit %q", s)
}

// Program is a named, ordered list of workout days.
type Program struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Workouts    []WorkoutDay `json:"workouts"`
}

// WorkoutDay is one entry of a program. A day with no exercises is a rest
// day. Days are referenced by their index in Program.Workouts.
type WorkoutDay struct {
	Name      string         `json:"name"`
	Exercises []ExerciseSpec `json:"exercises"`
}

// IsRest reports whether the day is a rest day.
func (w WorkoutDay) IsRest() bool { return len(w.Exercises) == 0 }

// MaxSets caps the number of sets one exercise may prescribe.
const MaxSets = 100

// ExerciseSpec is the prescription for one exercise on a workout day.
// MetricValue is free-form so ranges like "8-12" survive.
type ExerciseSpec struct {
	Name        string     `json:"name"`
	Sets        int        `json:"sets"`
	MetricValue string     `json:"metricValue"`
	MetricUnit  MetricUnit `json:"metricUnit"`
	Description string     `json:"description"`
}

// FormatMetric renders a target like "8-12 reps" or "1 mile".
func FormatMetric(value string, unit MetricUnit) string {
	if value == "" || unit == "" {
		return ""
	}
	if unit == UnitMiles {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f == 1 {
			return value + " mile"
		}
	}
	return value + " " + string(unit)
}

// Workout returns the day at index, or false when the index does not
// address a day of the program.
func (p *Program) Workout(index int) (WorkoutDay, bool) {
	if p == nil || index < 0 || index >= len(p.Workouts) {
		return WorkoutDay{}, false
	}
	return p.Workouts[index], true
}

// TrainingDays counts the non-rest days of the program.
func (p *Program) TrainingDays() int {
	n := 0
	for _, w := range p.Workouts {
		if !w.IsRest() {
			n++
		}
	}
	return n
}

// ProgramIdea is a short pitch for a program, used to seed full generation.
type ProgramIdea struct {
	ProgramName string `json:"programName"`
	Description string `json:"description"`
	Goal        string `json:"goal"`
	Level       string `json:"level"`
}
