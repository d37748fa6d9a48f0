package types

import (
	"time"

	ierr "github.com/flexprice/recurring/internal/errors"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ToDate truncates t to its calendar day, expressed as midnight UTC.
// Schedule dates are always kept in this form so comparisons are day-exact.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invalid date %q, expected format YYYY-MM-DD", s).
			Mark(ierr.ErrValidation)
	}
	return ToDate(t), nil
}

// FormatDate formats a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// LastDayOfMonth returns the number of days in the given month, leap-year aware
func LastDayOfMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds the date with the given target day, clamped to the last
// day of the month when the month is shorter.
func ClampedDate(year int, month time.Month, dayOfMonth int) time.Time {
	day := dayOfMonth
	if last := LastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddClampedMonths moves t forward by the given number of months and places
// the result on dayOfMonth, clamped to the target month. The day of t itself
// is ignored so a clamp applied on a previous step never sticks.
func AddClampedMonths(t time.Time, months int, dayOfMonth int) time.Time {
	y, m, _ := t.Date()

	newY := y
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 3 months to November lands on February next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	return ClampedDate(newY, newM, dayOfMonth)
}

// NextGenerationDate advances date by exactly one period of the given
// frequency and re-targets dayOfMonth in the resulting month.
func NextGenerationDate(date time.Time, frequency RecurringFrequency, dayOfMonth int) (time.Time, error) {
	if err := frequency.Validate(); err != nil {
		return date, err
	}
	if err := ValidateDayOfMonth(dayOfMonth); err != nil {
		return date, err
	}
	return AddClampedMonths(ToDate(date), frequency.Months(), dayOfMonth), nil
}

// ValidateDayOfMonth checks the target day is within [1, 31]
func ValidateDayOfMonth(dayOfMonth int) error {
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return ierr.NewErrorf("day of month %d out of range", dayOfMonth).
			WithHint("Day of month must be between 1 and 31").
			WithReportableDetails(map[string]any{
				"day_of_month": dayOfMonth,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
