// Package period resolves instants to challenge periods (day, week, month).
//
// All functions are pure and work in the location carried by the given time;
// callers convert "now" into the team's timezone first.
package period

import (
	"fmt"
	"time"
)

const lastNanosecond = 999 * int(time.Millisecond)

// WeeklyKey identifies the ISO week containing t, e.g. "2024-9".
// Weeks run Monday to Sunday, matching EndOfWeek.
func WeeklyKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%d", year, week)
}

// MonthlyKey identifies the calendar month containing t, e.g. "2024-3".
func MonthlyKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

// StartOfDay returns midnight at the beginning of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 on t's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, lastNanosecond, t.Location())
}

// EndOfWeek returns 23:59:59.999 on the upcoming Sunday. On a Sunday the week ends the same day.
func EndOfWeek(t time.Time) time.Time {
	distance := 0
	if wd := t.Weekday(); wd != time.Sunday {
		distance = 7 - int(wd)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+distance, 23, 59, 59, lastNanosecond, t.Location())
}

// EndOfMonth returns 23:59:59.999 on the last calendar day of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(y, m+1, 0, 23, 59, 59, lastNanosecond, t.Location())
}

// SameDay reports whether createdAt falls inside t's day window (createdAt >= StartOfDay(t)).
func SameDay(createdAt, t time.Time) bool {
	return !createdAt.Before(StartOfDay(t)) && !createdAt.After(EndOfDay(t))
}
