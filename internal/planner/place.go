// Package planner places a program's workout days on calendar dates and
// reconciles the resulting schedule against workout history.
package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claude/kinetic/internal/models"
)

// MaxDayOffset bounds how far past the start date placement may walk.
const MaxDayOffset = 365 * 5

var (
	ErrEmptyProgram = errors.New("program has no workouts to schedule")
	ErrNoWeekdays   = errors.New("select at least one day of the week")
	ErrInvalidDate  = errors.New("a start date is required")
	ErrSafetyBound  = errors.New("scheduling exceeded the five-year safety limit")
)

// WeekdaySet is a set of selected training weekdays.
type WeekdaySet map[time.Weekday]bool

// NewWeekdaySet builds a set from the given days. Values outside
// Sunday..Saturday are ignored.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	set := WeekdaySet{}
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			set[d] = true
		}
	}
	return set
}

// Days returns the selected weekdays in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(s))
	for d, on := range s {
		if on {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Len returns the number of selected weekdays.
func (s WeekdaySet) Len() int { return len(s.Days()) }

// DefaultWeekdays is Monday, Wednesday and Friday.
func DefaultWeekdays() WeekdaySet {
	return NewWeekdaySet(time.Monday, time.Wednesday, time.Friday)
}

// Place assigns every training day of program to a selected weekday on or
// after start, in program order. Rest days keep their index but take no
// calendar slot. The j-th placed entry is labelled
// "Week floor(j/K)+1, Day (j mod K)+1" where K is the number of selected
// weekdays.
func Place(program models.Program, start models.Date, weekdays WeekdaySet) ([]models.ScheduledEntry, error) {
	if len(program.Workouts) == 0 {
		return nil, ErrEmptyProgram
	}
	perWeek := weekdays.Len()
	if perWeek == 0 {
		return nil, ErrNoWeekdays
	}
	if start.IsZero() {
		return nil, ErrInvalidDate
	}

	entries := make([]models.ScheduledEntry, 0, program.TrainingDays())
	i, offset, placed := 0, 0, 0
	for i < len(program.Workouts) {
		if program.Workouts[i].IsRest() {
			i++
			continue
		}
		if offset > MaxDayOffset {
			return nil, fmt.Errorf("placing %q: %w", program.Name, ErrSafetyBound)
		}

		day := start.AddDays(offset)
		if weekdays[day.Weekday()] {
			entries = append(entries, models.ScheduledEntry{
				Date:         day,
				ProgramID:    program.ID,
				ProgramName:  program.Name,
				WorkoutIndex: i,
				WorkoutName:  models.WeekDayLabel(placed/perWeek+1, placed%perWeek+1),
			})
			i++
			placed++
		}
		offset++
	}
	return entries, nil
}

// ParseWeekday accepts English day names ("Mon", "monday") or the numbers
// 0 (Sunday) through 6 (Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return time.Weekday(s[0] - '0'), nil
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if lower == name || (len(lower) >= 3 && len(lower) < len(name) && name[:len(lower)] == lower) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdays reads a comma separated list such as "mon,wed,fri" or
// "1,3,5". Blank items are skipped, so an empty string yields an empty set.
func ParseWeekdays(s string) (WeekdaySet, error) {
	set := WeekdaySet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		set[d] = true
	}
	return set, nil
}

// MarshalJSON encodes the set as a sorted list of weekday numbers
// (0 = Sunday).
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	days := s.Days()
	nums := make([]int, len(days))
	for i, d := range days {
		nums[i] = int(d)
	}
	return json.Marshal(nums)
}

// UnmarshalJSON accepts a list of weekday numbers or names, in any mix.
// null leaves the set untouched.
func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("weekdays must be a list: %w", err)
	}
	set := WeekdaySet{}
	for _, item := range raw {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			if n < 0 || n > 6 {
				return fmt.Errorf("weekday %d out of range 0-6", n)
			}
			set[time.Weekday(n)] = true
			continue
		}
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			return fmt.Errorf("weekday must be a number or name: %s", item)
		}
		d, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		set[d] = true
	}
	*s = set
	return nil
}
