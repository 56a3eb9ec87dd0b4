package models

import "fmt"

// ScheduledEntry places one workout day of a program on a calendar date.
// ProgramName is a snapshot taken when the schedule was built.
type ScheduledEntry struct {
	Date         Date   `json:"date"`
	ProgramID    string `json:"programId"`
	ProgramName  string `json:"programName"`
	WorkoutIndex int    `json:"workoutIndex"`
	WorkoutName  string `json:"workoutName"`
}

// Key identifies the workout the entry asks for on its date.
func (e ScheduledEntry) Key() EntryKey {
	return EntryKey{ProgramID: e.ProgramID, WorkoutIndex: e.WorkoutIndex, Date: e.Date.String()}
}

// EntryKey is the matching key between schedule entries and history.
type EntryKey struct {
	ProgramID    string
	WorkoutIndex int
	Date         string
}

// WeekDayLabel formats the "Week w, Day d" label of a placed entry.
func WeekDayLabel(week, day int) string {
	return fmt.Sprintf("Week %d, Day %d", week, day)
}
