package recurringinvoice

import (
	"time"

	"github.com/flexprice/recurring/internal/types"
)

// ReminderDate is the day the pre-generation reminder for the pending
// generation goes out. It is only meaningful when NotificationDaysBefore > 0.
func (s *Series) ReminderDate() time.Time {
	return types.ToDate(s.NextGenerationDate).AddDate(0, 0, -s.NotificationDaysBefore)
}

// NotificationDue reports whether today is the reminder day of an active series
func (s *Series) NotificationDue(today time.Time) bool {
	if s.NotificationDaysBefore <= 0 {
		return false
	}
	if s.SeriesStatus != types.RecurringSeriesStatusActive {
		return false
	}
	return types.ToDate(today).Equal(s.ReminderDate())
}
