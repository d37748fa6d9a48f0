package recurringinvoice

import (
	"time"

	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
)

// InitialGenerationDate places the first anchor on dayOfMonth in the start
// month, clamped. If that day already passed in the start month the anchor
// moves to the following month so it never precedes the start date.
func InitialGenerationDate(startDate time.Time, dayOfMonth int) time.Time {
	start := types.ToDate(startDate)
	candidate := types.ClampedDate(start.Year(), start.Month(), dayOfMonth)
	if candidate.Before(start) {
		candidate = types.AddClampedMonths(start, 1, dayOfMonth)
	}
	return candidate
}

// IsDue reports whether a generation should fire on today. An anchor past
// the end date never fires.
func (s *Series) IsDue(today time.Time) bool {
	if s.SeriesStatus != types.RecurringSeriesStatusActive {
		return false
	}
	if s.EndDate != nil && types.ToDate(s.NextGenerationDate).After(types.ToDate(*s.EndDate)) {
		return false
	}
	return !types.ToDate(today).Before(types.ToDate(s.NextGenerationDate))
}

// Advance applies one generation event to a copy of the series: the counter
// is incremented and the anchor moves by one period, or the series completes
// when the next anchor would cross the end date. Exactly one period is
// consumed per call however far behind today is.
func Advance(s *Series, today time.Time) (*Series, error) {
	if !s.IsDue(today) {
		return nil, NewNotDueError(s, today)
	}

	candidate, err := types.NextGenerationDate(s.NextGenerationDate, s.Frequency, s.DayOfMonth)
	if err != nil {
		return nil, err
	}

	updated := s.Copy()
	updated.TotalInvoicesGenerated++

	if updated.EndDate != nil && candidate.After(types.ToDate(*updated.EndDate)) {
		// the anchor stays on the last valid generation date
		updated.complete()
		return updated, nil
	}

	updated.NextGenerationDate = candidate
	return updated, nil
}

// NewNotDueError reports a generation requested before it is due or on a
// series that is not active
func NewNotDueError(s *Series, today time.Time) error {
	return ierr.NewErrorf("series %s is not due on %s", s.ID, types.FormatDate(today)).
		WithHint("The recurring invoice is not due for generation").
		WithReportableDetails(map[string]any{
			"series_id":            s.ID,
			"status":               s.SeriesStatus,
			"next_generation_date": types.FormatDate(s.NextGenerationDate),
			"as_of":                types.FormatDate(today),
		}).
		Mark(ierr.ErrNotDue)
}
