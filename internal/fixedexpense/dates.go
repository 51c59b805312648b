package fixedexpense

import "time"

// CycleHour is the hour of day at which generated expenses are dated, far
// enough from midnight that timezone conversions do not move the date.
const CycleHour = 12

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the length of the given month. Days past the end of
// a short month clamp down and never roll into the next month.
func ClampDay(year int, month time.Month, day int) int {
	if day < 1 {
		return 1
	}
	return min(day, DaysInMonth(year, month))
}

// Today returns now's calendar date as midnight UTC, the representation used
// for DATE columns.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CycleDate is the date of the expense generated for the month containing
// now: the fixed day clamped to that month, at CycleHour in now's location.
func CycleDate(now time.Time, fixedDay int) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, ClampDay(y, m, fixedDay), CycleHour, 0, 0, 0, now.Location())
}

// NextGenerationDate is the calendar date one month after cycle, with the
// fixed day clamped to that month's length.
func NextGenerationDate(cycle time.Time, fixedDay int) time.Time {
	y, m, _ := cycle.Date()
	// Day 1 keeps time.Date from normalising e.g. Jan 31 + 1 month into March.
	ny, nm, _ := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC).Date()
	return time.Date(ny, nm, ClampDay(ny, nm, fixedDay), 0, 0, 0, 0, time.UTC)
}
