package author

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/kinetic/internal/models"
)

// Draft is a program read from a model reply. It is not saved; Warnings
// list what had to be skipped or defaulted.
type Draft struct {
	Program  models.Program `json:"program"`
	Warnings []string       `json:"warnings"`
}

func (d *Draft) warn(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// extractJSON strips markdown fences and any prose around the outermost
// JSON object or array.
func extractJSON(s string) string {
	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+7:]
	} else if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return strings.TrimSpace(s)
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end < start {
		return strings.TrimSpace(s[start:])
	}
	return s[start : end+1]
}

type rawProgram struct {
	ProgramName string            `json:"programName"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Workouts    []json.RawMessage `json:"workouts"`
}

type rawWorkout struct {
	Name      string            `json:"name"`
	Exercises []json.RawMessage `json:"exercises"`
}

type rawExercise struct {
	Name        string          `json:"name"`
	Sets        json.RawMessage `json:"sets"`
	MetricValue json.RawMessage `json:"metricValue"`
	MetricUnit  string          `json:"metricUnit"`
	Description string          `json:"description"`
}

// ParseProgram reads a program from a model reply, keeping whatever parts
// decode. Only a reply with no readable JSON object is an error.
func ParseProgram(reply string) (Draft, error) {
	var raw rawProgram
	if err := json.Unmarshal([]byte(extractJSON(reply)), &raw); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	d := Draft{Program: models.Program{
		Name:        strings.TrimSpace(raw.ProgramName),
		Description: strings.TrimSpace(raw.Description),
		Workouts:    []models.WorkoutDay{},
	}}
	if d.Program.Name == "" {
		d.Program.Name = strings.TrimSpace(raw.Name)
	}

	for i, rw := range raw.Workouts {
		var w rawWorkout
		if err := json.Unmarshal(rw, &w); err != nil {
			d.warn("skipped workout %d: %v", i+1, err)
			continue
		}
		day := models.WorkoutDay{Name: strings.TrimSpace(w.Name), Exercises: []models.ExerciseSpec{}}
		if day.Name == "" {
			day.Name = fmt.Sprintf("Day %d", i+1)
		}
		for j, re := range w.Exercises {
			ex, ok := parseExercise(&d, day.Name, j, re)
			if ok {
				day.Exercises = append(day.Exercises, ex)
			}
		}
		d.Program.Workouts = append(d.Program.Workouts, day)
	}
	if len(d.Program.Workouts) == 0 {
		d.warn("no workouts could be read")
	}
	return d, nil
}

func parseExercise(d *Draft, day string, j int, data json.RawMessage) (models.ExerciseSpec, bool) {
	var re rawExercise
	if err := json.Unmarshal(data, &re); err != nil {
		d.warn("%s: skipped exercise %d: %v", day, j+1, err)
		return models.ExerciseSpec{}, false
	}
	ex := models.ExerciseSpec{
		Name:        strings.TrimSpace(re.Name),
		MetricValue: scalarString(re.MetricValue),
		Description: strings.TrimSpace(re.Description),
	}
	if ex.Name == "" {
		d.warn("%s: skipped exercise %d with no name", day, j+1)
		return models.ExerciseSpec{}, false
	}

	if f, err := strconv.ParseFloat(scalarString(re.Sets), 64); err == nil {
		switch {
		case f > models.MaxSets:
			d.warn("%s: %s asked for %v sets, using %d", day, ex.Name, f, models.MaxSets)
			ex.Sets = models.MaxSets
		case f >= 1:
			ex.Sets = int(f)
		}
	}
	if ex.Sets < 1 {
		d.warn("%s: %s had no valid set count, using 1", day, ex.Name)
		ex.Sets = 1
	}

	unit, err := models.ParseMetricUnit(re.MetricUnit)
	if err != nil {
		if re.MetricUnit != "" {
			d.warn("%s: %s has unknown unit %q, using reps", day, ex.Name, re.MetricUnit)
		}
		unit = models.UnitReps
	}
	ex.MetricUnit = unit
	return ex, true
}

// scalarString renders a JSON string or number as plain text. Anything
// else becomes "".
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// ParseIdeas reads program ideas from a reply holding either a JSON array
// or an object with an "ideas" array. Ideas without a name are dropped.
func ParseIdeas(reply string) ([]models.ProgramIdea, error) {
	body := []byte(extractJSON(reply))
	var ideas []models.ProgramIdea
	if err := json.Unmarshal(body, &ideas); err != nil {
		var wrapped struct {
			Ideas []models.ProgramIdea `json:"ideas"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		ideas = wrapped.Ideas
	}

	out := make([]models.ProgramIdea, 0, len(ideas))
	for _, idea := range ideas {
		idea.ProgramName = strings.TrimSpace(idea.ProgramName)
		if idea.ProgramName == "" {
			continue
		}
		out = append(out, idea)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no program ideas in reply", ErrMalformed)
	}
	return out, nil
}
