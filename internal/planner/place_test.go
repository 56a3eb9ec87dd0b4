package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/claude/kinetic/internal/models"
)

func training(name string) models.WorkoutDay {
	return models.WorkoutDay{
		Name:      name,
		Exercises: []models.ExerciseSpec{{Name: "Squat", Sets: 3, MetricValue: "5", MetricUnit: models.UnitReps}},
	}
}

func rest() models.WorkoutDay {
	return models.WorkoutDay{Name: "Rest"}
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// TestPlaceScenario covers the reference scenario: [Rest, A, B, Rest, C]
// from a Monday on Mon/Wed lands A and B in week one and C the next Monday.
func TestPlaceScenario(t *testing.T) {
	program := models.Program{
		ID:       "p1",
		Name:     "Split",
		Workouts: []models.WorkoutDay{rest(), training("A"), training("B"), rest(), training("C")},
	}
	start := mustDate(t, "2024-06-03") // Monday

	entries, err := Place(program, start, NewWeekdaySet(time.Monday, time.Wednesday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		date  string
		index int
		label string
	}{
		{"2024-06-03", 1, "Week 1, Day 1"},
		{"2024-06-05", 2, "Week 1, Day 2"},
		{"2024-06-10", 4, "Week 2, Day 1"},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %d, want %d: %+v", len(entries), len(want), entries)
	}
	for i, w := range want {
		e := entries[i]
		if e.Date.String() != w.date || e.WorkoutIndex != w.index || e.WorkoutName != w.label {
			t.Errorf("entry %d = {%s %d %q}, want {%s %d %q}", i, e.Date, e.WorkoutIndex, e.WorkoutName, w.date, w.index, w.label)
		}
		if e.ProgramID != "p1" || e.ProgramName != "Split" {
			t.Errorf("entry %d program = %q/%q", i, e.ProgramID, e.ProgramName)
		}
	}
}

// TestPlaceStartOnUnselectedDay verifies placement waits for the first
// selected weekday instead of using the start date itself.
func TestPlaceStartOnUnselectedDay(t *testing.T) {
	program := models.Program{ID: "p", Workouts: []models.WorkoutDay{training("A")}}
	start := mustDate(t, "2024-06-04") // Tuesday

	entries, err := Place(program, start, NewWeekdaySet(time.Friday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Date.String() != "2024-06-07" {
		t.Fatalf("entries = %+v, want one entry on 2024-06-07", entries)
	}
}

func TestPlaceValidation(t *testing.T) {
	start := mustDate(t, "2024-06-03")
	tests := []struct {
		name     string
		program  models.Program
		start    models.Date
		weekdays WeekdaySet
		want     error
	}{
		{"empty program", models.Program{}, start, DefaultWeekdays(), ErrEmptyProgram},
		{"no weekdays", models.Program{Workouts: []models.WorkoutDay{training("A")}}, start, WeekdaySet{}, ErrNoWeekdays},
		{"deselected weekdays", models.Program{Workouts: []models.WorkoutDay{training("A")}}, start, WeekdaySet{time.Monday: false}, ErrNoWeekdays},
		{"zero start", models.Program{Workouts: []models.WorkoutDay{training("A")}}, models.Date{}, DefaultWeekdays(), ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Place(tt.program, tt.start, tt.weekdays)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if entries != nil {
				t.Errorf("entries = %+v, want nil on failure", entries)
			}
		})
	}
}

// TestPlaceAllRestDays verifies a program made only of rest days schedules
// nothing and is not an error.
func TestPlaceAllRestDays(t *testing.T) {
	program := models.Program{Workouts: []models.WorkoutDay{rest(), rest()}}
	entries, err := Place(program, mustDate(t, "2024-06-03"), DefaultWeekdays())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

// TestPlaceSafetyBound verifies a program too long for the five-year window
// aborts with no partial result.
func TestPlaceSafetyBound(t *testing.T) {
	workouts := make([]models.WorkoutDay, 300)
	for i := range workouts {
		workouts[i] = training(fmt.Sprintf("Day %d", i+1))
	}
	program := models.Program{ID: "long", Name: "Long", Workouts: workouts}

	entries, err := Place(program, mustDate(t, "2024-06-03"), NewWeekdaySet(time.Monday))
	if !errors.Is(err, ErrSafetyBound) {
		t.Fatalf("err = %v, want ErrSafetyBound", err)
	}
	if entries != nil {
		t.Errorf("expected no entries, got %d", len(entries))
	}

	// 261 weekly placements fit: the last lands 260 weeks (1820 days) out.
	program.Workouts = workouts[:261]
	entries, err = Place(program, mustDate(t, "2024-06-03"), NewWeekdaySet(time.Monday))
	if err != nil {
		t.Fatalf("unexpected error at the edge: %v", err)
	}
	if len(entries) != 261 {
		t.Errorf("entries = %d, want 261", len(entries))
	}
}

// TestPlaceProperties checks index stability, weekday containment,
// completeness and label determinism over random programs.
func TestPlaceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := mustDate(t, "2024-01-01")

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(40) + 1
		workouts := make([]models.WorkoutDay, n)
		trainingIdx := []int{}
		for i := range workouts {
			if rng.Intn(3) == 0 {
				workouts[i] = rest()
			} else {
				workouts[i] = training(fmt.Sprintf("W%d", i))
				trainingIdx = append(trainingIdx, i)
			}
		}

		weekdays := WeekdaySet{}
		for len(weekdays) == 0 {
			for d := time.Sunday; d <= time.Saturday; d++ {
				if rng.Intn(2) == 0 {
					weekdays[d] = true
				}
			}
		}
		k := weekdays.Len()

		entries, err := Place(models.Program{ID: "p", Workouts: workouts}, start.AddDays(rng.Intn(7)), weekdays)
		if err != nil {
			t.Fatalf("iter %d: unexpected error: %v", iter, err)
		}
		if len(entries) != len(trainingIdx) {
			t.Fatalf("iter %d: entries = %d, want %d", iter, len(entries), len(trainingIdx))
		}
		for j, e := range entries {
			if e.WorkoutIndex != trainingIdx[j] {
				t.Fatalf("iter %d entry %d: index = %d, want %d", iter, j, e.WorkoutIndex, trainingIdx[j])
			}
			if workouts[e.WorkoutIndex].IsRest() {
				t.Fatalf("iter %d entry %d: rest day scheduled", iter, j)
			}
			if !weekdays[e.Date.Weekday()] {
				t.Fatalf("iter %d entry %d: %s is a %s, not selected", iter, j, e.Date, e.Date.Weekday())
			}
			if want := models.WeekDayLabel(j/k+1, j%k+1); e.WorkoutName != want {
				t.Fatalf("iter %d entry %d: label = %q, want %q", iter, j, e.WorkoutName, want)
			}
			if j > 0 && !entries[j-1].Date.Before(e.Date) {
				t.Fatalf("iter %d entry %d: dates not strictly increasing", iter, j)
			}
		}
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"0":         time.Sunday,
		"6":         time.Saturday,
		"mon":       time.Monday,
		"Wednesday": time.Wednesday,
		"THU":       time.Thursday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil {
			t.Errorf("ParseWeekday(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"7", "mo", "someday", ""} {
		if _, err := ParseWeekday(bad); err == nil {
			t.Errorf("ParseWeekday(%q) should fail", bad)
		}
	}
}

func TestWeekdaySetJSON(t *testing.T) {
	var set WeekdaySet
	if err := json.Unmarshal([]byte(`[1, "wed", "Friday"]`), &set); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if set.Len() != 3 || !set[time.Monday] || !set[time.Wednesday] || !set[time.Friday] {
		t.Errorf("set = %v, want Mon/Wed/Fri", set.Days())
	}

	out, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[1,3,5]" {
		t.Errorf("marshal = %s, want [1,3,5]", out)
	}

	var unset WeekdaySet
	if err := json.Unmarshal([]byte(`null`), &unset); err != nil || unset != nil {
		t.Errorf("null = %v, %v; want nil set", unset, err)
	}

	for _, bad := range []string{`[7]`, `["someday"]`, `"mon"`, `[true]`} {
		if err := json.Unmarshal([]byte(bad), &set); err == nil {
			t.Errorf("unmarshal %s should fail", bad)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		in      string
		want    []time.Weekday
		wantErr bool
	}{
		{"mon,wed,fri", []time.Weekday{time.Monday, time.Wednesday, time.Friday}, false},
		{"tue, 4 ,sat", []time.Weekday{time.Tuesday, time.Thursday, time.Saturday}, false},
		{"0,,sunday", []time.Weekday{time.Sunday}, false},
		{"", nil, false},
		{"mon,funday", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			set, err := ParseWeekdays(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", set.Days())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := set.Days()
			if len(got) != len(tt.want) {
				t.Fatalf("days = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("days = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
