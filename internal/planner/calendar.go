package planner

import (
	"time"

	"github.com/claude/kinetic/internal/models"
)

// CalendarEntry is a scheduled entry as shown on the calendar.
type CalendarEntry struct {
	models.ScheduledEntry
	Completed bool `json:"completed"`
}

// CalendarDay is one day cell of a month view.
type CalendarDay struct {
	Date    models.Date     `json:"date"`
	Today   bool            `json:"today"`
	Entries []CalendarEntry `json:"entries"`
}

// MonthView is a month of calendar days. LeadingBlanks is the number of
// empty cells before the 1st in a Sunday-first grid.
type MonthView struct {
	Year          int           `json:"year"`
	Month         time.Month    `json:"month"`
	LeadingBlanks int           `json:"leadingBlanks"`
	Days          []CalendarDay `json:"days"`
}

// Month builds the calendar for year/month, marking each scheduled entry
// completed when history fulfils it.
func Month(schedule []models.ScheduledEntry, history []models.CompletedWorkout, year int, month time.Month, today models.Date) MonthView {
	first := models.NewDate(year, month, 1)
	view := MonthView{
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: int(first.Weekday()),
	}

	byDate := map[string][]models.ScheduledEntry{}
	for _, e := range schedule {
		if e.Date.Year() == view.Year && e.Date.Month() == view.Month {
			byDate[e.Date.String()] = append(byDate[e.Date.String()], e)
		}
	}
	done := completedKeys(history, models.Date{})

	for d := first; d.Month() == view.Month; d = d.AddDays(1) {
		day := CalendarDay{Date: d, Today: d.Equal(today), Entries: []CalendarEntry{}}
		for _, e := range byDate[d.String()] {
			day.Entries = append(day.Entries, CalendarEntry{ScheduledEntry: e, Completed: done[e.Key()]})
		}
		view.Days = append(view.Days, day)
	}
	return view
}
