package author

import (
	"errors"
	"strings"
	"testing"

	"github.com/claude/kinetic/internal/models"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go:\n{\"a\":{\"b\":2}}\nEnjoy!", `{"a":{"b":2}}`},
		{"array", "Sure! [{\"a\":1}] done", `[{"a":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestParseProgramTolerant verifies partial replies still produce a draft:
// bad entries are skipped with warnings and optional fields default.
func TestParseProgramTolerant(t *testing.T) {
	reply := "```json\n" + `{
		"programName": "Push Pull",
		"workouts": [
			{"name": "Push", "exercises": [
				{"name": "Bench", "sets": 4, "metricValue": "8-12", "metricUnit": "reps"},
				{"name": "Run", "sets": "2", "metricValue": 1, "metricUnit": "Mile"},
				{"name": "Mystery", "sets": 0, "metricValue": "10", "metricUnit": "furlongs"},
				{"sets": 3},
				"not an exercise"
			]},
			{"name": "Rest", "exercises": []},
			42,
			{"exercises": [{"name": "Row", "sets": 3}]}
		]
	}` + "\n```"

	d, err := ParseProgram(reply)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	p := d.Program
	if p.Name != "Push Pull" || p.Description != "" {
		t.Errorf("name/description = %q/%q", p.Name, p.Description)
	}
	if len(p.Workouts) != 3 {
		t.Fatalf("workouts = %d, want 3", len(p.Workouts))
	}

	push := p.Workouts[0]
	if len(push.Exercises) != 3 {
		t.Fatalf("push exercises = %d, want 3", len(push.Exercises))
	}
	run := push.Exercises[1]
	if run.Sets != 2 || run.MetricValue != "1" || run.MetricUnit != models.UnitMiles {
		t.Errorf("run = %+v", run)
	}
	mystery := push.Exercises[2]
	if mystery.Sets != 1 || mystery.MetricUnit != models.UnitReps {
		t.Errorf("mystery = %+v, want 1 set of reps", mystery)
	}

	if !p.Workouts[1].IsRest() || p.Workouts[1].Exercises == nil {
		t.Errorf("rest day = %+v, want empty non-nil exercises", p.Workouts[1])
	}
	if p.Workouts[2].Name != "Day 4" {
		t.Errorf("unnamed workout = %q, want Day 4", p.Workouts[2].Name)
	}
	if p.Workouts[2].Exercises[0].MetricUnit != models.UnitReps {
		t.Errorf("missing unit should default to reps")
	}

	// unknown unit, bad sets, unnamed exercise, non-object exercise, non-object workout
	if len(d.Warnings) != 5 {
		t.Errorf("warnings = %d, want 5: %v", len(d.Warnings), d.Warnings)
	}
}

func TestParseProgramSetCount(t *testing.T) {
	tests := []struct {
		sets     string
		want     int
		warnings int
	}{
		{`5`, 5, 0},
		{`"100"`, models.MaxSets, 0},
		{`101`, models.MaxSets, 1},
		{`1e15`, models.MaxSets, 1},
		{`"Infinity"`, models.MaxSets, 1},
		{`"NaN"`, 1, 1},
		{`-3`, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.sets, func(t *testing.T) {
			reply := `{"programName": "P", "workouts": [{"name": "A", "exercises": [{"name": "Squat", "sets": ` + tt.sets + `, "metricUnit": "reps"}]}]}`
			d, err := ParseProgram(reply)
			if err != nil {
				t.Fatal(err)
			}
			if got := d.Program.Workouts[0].Exercises[0].Sets; got != tt.want {
				t.Errorf("sets = %d, want %d", got, tt.want)
			}
			if len(d.Warnings) != tt.warnings {
				t.Errorf("warnings = %v, want %d", d.Warnings, tt.warnings)
			}
		})
	}
}

func TestParseProgramMalformed(t *testing.T) {
	for _, reply := range []string{"", "I can't help with that.", "{\"programName\": "} {
		if _, err := ParseProgram(reply); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseProgram(%q) err = %v, want ErrMalformed", reply, err)
		}
	}
}

func TestParseProgramEmptyWorkouts(t *testing.T) {
	d, err := ParseProgram(`{"programName": "Nothing"}`)
	if err != nil {
		t.Fatal(err)
	}
	if d.Program.Workouts == nil || len(d.Program.Workouts) != 0 {
		t.Errorf("workouts = %#v", d.Program.Workouts)
	}
	if len(d.Warnings) != 1 || !strings.Contains(d.Warnings[0], "no workouts") {
		t.Errorf("warnings = %v", d.Warnings)
	}
}

func TestParseIdeas(t *testing.T) {
	ideas, err := ParseIdeas("```json\n" + `[
		{"programName": "Starter Strength", "description": "Full body", "goal": "Strength", "level": "Beginner"},
		{"programName": "", "description": "nameless"},
		{"programName": "5K Builder", "goal": "Endurance"}
	]` + "\n```")
	if err != nil {
		t.Fatalf("ParseIdeas: %v", err)
	}
	if len(ideas) != 2 || ideas[0].ProgramName != "Starter Strength" || ideas[1].Level != "" {
		t.Errorf("ideas = %+v", ideas)
	}

	wrapped, err := ParseIdeas(`{"ideas": [{"programName": "Wrapped"}]}`)
	if err != nil || len(wrapped) != 1 {
		t.Errorf("wrapped ideas = %+v, %v", wrapped, err)
	}

	if _, err := ParseIdeas(`[]`); !errors.Is(err, ErrMalformed) {
		t.Errorf("empty ideas err = %v, want ErrMalformed", err)
	}
}
