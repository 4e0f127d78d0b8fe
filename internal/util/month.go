package util

import "time"

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// AddMonths returns the year and month n months after (or before, for negative n) the given one
func AddMonths(year, month, n int) (int, int) {
	idx := year*12 + (month - 1) + n
	return idx / 12, idx%12 + 1
}

// MonthBounds returns the first and last calendar day of a month as UTC dates
func MonthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return first, last
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}

// NextOccurrence returns the first date on or after from that falls on targetDay,
// clamping targetDay to the length of each candidate month
func NextOccurrence(from time.Time, targetDay int) time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	candidate := CalculateActualDate(from.Year(), from.Month(), targetDay)
	if candidate.Before(from) {
		y, m := AddMonths(from.Year(), int(from.Month()), 1)
		candidate = CalculateActualDate(y, time.Month(m), targetDay)
	}
	return candidate
}
