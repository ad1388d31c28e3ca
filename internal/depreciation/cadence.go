package depreciation

import (
	"time"

	"aktiva/internal/models"
)

// quarter-end months checked for quarterly schedules.
var quarterMonths = []time.Month{time.March, time.June, time.September, time.December}

// NextExecutionDate returns the first date on or after today on which a
// schedule with the given cadence and execution day should run. The
// execution day is clamped to the last valid day of shorter months.
func NextExecutionDate(cadence models.Cadence, executionDay int, today time.Time) time.Time {
	day := startOfDay(today)

	switch cadence {
	case models.CadenceQuarterly:
		for year := day.Year(); ; year++ {
			for _, month := range quarterMonths {
				candidate := occurrence(year, month, executionDay, day.Location())
				if !candidate.Before(day) {
					return candidate
				}
			}
		}

	case models.CadenceAnnually:
		candidate := occurrence(day.Year(), time.December, executionDay, day.Location())
		if candidate.Before(day) {
			candidate = occurrence(day.Year()+1, time.December, executionDay, day.Location())
		}
		return candidate

	default: // monthly
		candidate := occurrence(day.Year(), day.Month(), executionDay, day.Location())
		if candidate.Before(day) {
			candidate = occurrence(day.Year(), day.Month()+1, executionDay, day.Location())
		}
		return candidate
	}
}

// occurrence builds the execution date for a month, clamping the day to
// the month's length (day 31 in a 30-day month becomes the 30th).
func occurrence(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
