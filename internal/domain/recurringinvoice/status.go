package recurringinvoice

import (
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
	"github.com/samber/lo"
)

// userTransitions lists the status changes a user may request.
// Completion is never requested; the schedule engine applies it.
var userTransitions = map[types.RecurringSeriesStatus][]types.RecurringSeriesStatus{
	types.RecurringSeriesStatusActive: {
		types.RecurringSeriesStatusPaused,
		types.RecurringSeriesStatusCancelled,
	},
	types.RecurringSeriesStatusPaused: {
		types.RecurringSeriesStatusActive,
		types.RecurringSeriesStatusCancelled,
	},
}

// CanTransition reports whether a user may move a series from one status to another
func CanTransition(from, to types.RecurringSeriesStatus) bool {
	return lo.Contains(userTransitions[from], to)
}

// TransitionTo applies a user requested status change. Requesting the current
// status is a no-op. Terminal series reject every target.
func (s *Series) TransitionTo(target types.RecurringSeriesStatus) error {
	if s.SeriesStatus.IsTerminal() {
		return newTerminalStateError(s, target)
	}

	if err := target.Validate(); err != nil {
		return err
	}

	if target == s.SeriesStatus {
		return nil
	}

	if target == types.RecurringSeriesStatusCompleted {
		return ierr.NewError("series cannot be completed manually").
			WithHint("A series is completed automatically once its end date is reached").
			WithReportableDetails(map[string]any{
				"series_id": s.ID,
				"status":    s.SeriesStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if !CanTransition(s.SeriesStatus, target) {
		return ierr.NewErrorf("cannot move series from %s to %s", s.SeriesStatus, target).
			WithHintf("A %s series cannot be moved to %s", s.SeriesStatus, target).
			Mark(ierr.ErrInvalidOperation)
	}

	s.SeriesStatus = target
	return nil
}

// complete is the engine-only transition fired when the end date is crossed
func (s *Series) complete() {
	s.SeriesStatus = types.RecurringSeriesStatusCompleted
}

func newTerminalStateError(s *Series, target types.RecurringSeriesStatus) error {
	return ierr.NewErrorf("series %s is %s", s.ID, s.SeriesStatus).
		WithHintf("The recurring invoice is %s and can no longer change", s.SeriesStatus).
		WithReportableDetails(map[string]any{
			"series_id":        s.ID,
			"status":           s.SeriesStatus,
			"requested_status": target,
		}).
		Mark(ierr.ErrTerminalState)
}

// EnsureEditable rejects schedule edits on terminal series
func (s *Series) EnsureEditable() error {
	if s.SeriesStatus.IsTerminal() {
		return ierr.NewErrorf("series %s is %s", s.ID, s.SeriesStatus).
			WithHintf("A %s recurring invoice cannot be edited", s.SeriesStatus).
			WithReportableDetails(map[string]any{
				"series_id": s.ID,
				"status":    s.SeriesStatus,
			}).
			Mark(ierr.ErrTerminalState)
	}
	return nil
}
