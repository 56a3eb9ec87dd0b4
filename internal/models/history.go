package models

// SetStatus is the outcome of a single set.
type SetStatus string

const (
	SetMissed SetStatus = "missed"
	SetDone   SetStatus = "done"
)

// Valid reports whether s is a known status.
func (s SetStatus) Valid() bool { return s == SetMissed || s == SetDone }

// SetPerformance records one set. Weight and Reps stay nil until the user
// enters a usable value.
type SetPerformance struct {
	Status SetStatus `json:"status"`
	Weight *float64  `json:"weight,omitempty"`
	Reps   *float64  `json:"reps,omitempty"`
}

// ExercisePerformance is an exercise prescription plus what was performed.
type ExercisePerformance struct {
	ExerciseSpec
	Performance []SetPerformance `json:"performance"`
}

// CompletedWorkout is a workout session. It is created when a session
// starts and appended to history, never removed, once feedback is given.
type CompletedWorkout struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Date         Date                  `json:"date"`
	Completed    bool                  `json:"completed"`
	Exercises    []ExercisePerformance `json:"exercises"`
	ProgramID    string                `json:"programId,omitempty"`
	WorkoutIndex *int                  `json:"workoutIndex,omitempty"`
	Intensity    int                   `json:"intensity,omitempty"`
	Notes        string                `json:"notes"`
}

// Matches reports whether the record fulfils the scheduled entry: it must be
// completed and share the entry's program, workout index and date.
func (c CompletedWorkout) Matches(e ScheduledEntry) bool {
	return c.Completed &&
		c.WorkoutIndex != nil &&
		*c.WorkoutIndex == e.WorkoutIndex &&
		c.ProgramID == e.ProgramID &&
		c.Date.Equal(e.Date)
}

// NewPerformance builds an ExercisePerformance with one missed set per
// prescribed set, at most MaxSets.
func NewPerformance(spec ExerciseSpec) ExercisePerformance {
	sets := min(max(spec.Sets, 0), MaxSets)
	perf := make([]SetPerformance, sets)
	for i := range perf {
		perf[i] = SetPerformance{Status: SetMissed}
	}
	return ExercisePerformance{ExerciseSpec: spec, Performance: perf}
}
