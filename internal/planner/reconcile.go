package planner

import "github.com/claude/kinetic/internal/models"

// TodaysOutstanding returns the entries scheduled for today that no
// completed history record fulfils. Matching is on (program, workout
// index, date); one record clears every entry sharing that key.
func TodaysOutstanding(schedule []models.ScheduledEntry, history []models.CompletedWorkout, today models.Date) []models.ScheduledEntry {
	done := completedKeys(history, today)
	out := []models.ScheduledEntry{}
	for _, e := range schedule {
		if !e.Date.Equal(today) {
			continue
		}
		if done[e.Key()] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ScheduledOn returns every entry placed on day, completed or not.
func ScheduledOn(schedule []models.ScheduledEntry, day models.Date) []models.ScheduledEntry {
	var out []models.ScheduledEntry
	for _, e := range schedule {
		if e.Date.Equal(day) {
			out = append(out, e)
		}
	}
	return out
}

// IsCompleted reports whether history fulfils the entry.
func IsCompleted(e models.ScheduledEntry, history []models.CompletedWorkout) bool {
	for _, h := range history {
		if h.Matches(e) {
			return true
		}
	}
	return false
}

// completedKeys collects the keys of completed records, restricted to day
// when day is non-zero.
func completedKeys(history []models.CompletedWorkout, day models.Date) map[models.EntryKey]bool {
	keys := map[models.EntryKey]bool{}
	for _, h := range history {
		if !h.Completed || h.WorkoutIndex == nil {
			continue
		}
		if !day.IsZero() && !h.Date.Equal(day) {
			continue
		}
		keys[models.EntryKey{ProgramID: h.ProgramID, WorkoutIndex: *h.WorkoutIndex, Date: h.Date.String()}] = true
	}
	return keys
}

// TodayStatus summarizes the day for the training view.
type TodayStatus string

const (
	StatusNothingScheduled TodayStatus = "nothing_scheduled"
	StatusAllComplete      TodayStatus = "all_complete"
	StatusOutstanding      TodayStatus = "outstanding"
)

// TodayItem is an outstanding entry resolved against the program library.
// Missing is set when the entry points at a program or workout index that
// no longer exists.
type TodayItem struct {
	Entry   models.ScheduledEntry `json:"entry"`
	Workout *models.WorkoutDay    `json:"workout,omitempty"`
	RestDay bool                  `json:"restDay"`
	Missing bool                  `json:"missing"`
}

// TodayView is the derived state of the "today's training" screen.
type TodayView struct {
	Date   models.Date `json:"date"`
	Status TodayStatus `json:"status"`
	Items  []TodayItem `json:"items"`
}

// ProgramLookup finds a program by ID.
type ProgramLookup func(id string) (*models.Program, bool)

// Today derives the tri-state view for day. Outstanding entries are
// resolved through lookup; dangling references are flagged, not dropped.
func Today(schedule []models.ScheduledEntry, history []models.CompletedWorkout, day models.Date, lookup ProgramLookup) TodayView {
	view := TodayView{Date: day, Items: []TodayItem{}}
	if len(ScheduledOn(schedule, day)) == 0 {
		view.Status = StatusNothingScheduled
		return view
	}

	outstanding := TodaysOutstanding(schedule, history, day)
	if len(outstanding) == 0 {
		view.Status = StatusAllComplete
		return view
	}

	view.Status = StatusOutstanding
	for _, e := range outstanding {
		item := TodayItem{Entry: e}
		program, ok := lookup(e.ProgramID)
		if !ok {
			item.Missing = true
		} else if w, ok := program.Workout(e.WorkoutIndex); !ok {
			item.Missing = true
		} else {
			item.Workout = &w
			item.RestDay = w.IsRest()
		}
		view.Items = append(view.Items, item)
	}
	return view
}
