package util

import (
	"fmt"
	"time"
)

// Date returns midnight UTC for the given calendar day. All lease and payment
// dates are stored at day precision.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return Date(y, m, d)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PeriodString returns the human-readable billing period label, e.g.
// "January 2026". Unique per lease.
func PeriodString(month time.Month, year int) string {
	return fmt.Sprintf("%s %d", month.String(), year)
}

// DaysBetween returns the whole number of days from a to b at day precision.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// FormatTZS renders a TZS amount with thousands separators, e.g.
// "TZS 450,000".
func FormatTZS(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	out := ""
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out += ","
		}
		out += string(c)
	}
	if neg {
		out = "-" + out
	}
	return "TZS " + out
}
