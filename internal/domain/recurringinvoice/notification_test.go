package recurringinvoice

import (
	"testing"
	"time"

	"github.com/flexprice/recurring/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNotificationDue(t *testing.T) {
	s := newSeries(types.RecurringFrequencyMonthly, day(2024, time.March, 10), 10)
	s.NotificationDaysBefore = 3

	assert.True(t, s.ReminderDate().Equal(day(2024, time.March, 7)))
	assert.False(t, s.NotificationDue(day(2024, time.March, 6)))
	assert.True(t, s.NotificationDue(day(2024, time.March, 7)))
	assert.True(t, s.NotificationDue(time.Date(2024, time.March, 7, 18, 0, 0, 0, time.UTC)))
	assert.False(t, s.NotificationDue(day(2024, time.March, 8)))
}

func TestNotificationDue_CrossesMonthBoundary(t *testing.T) {
	s := newSeries(types.RecurringFrequencyMonthly, day(2024, time.March, 1), 1)
	s.NotificationDaysBefore = 2

	assert.True(t, s.NotificationDue(day(2024, time.February, 28)))
	assert.False(t, s.NotificationDue(day(2024, time.February, 29)))
}

func TestNotificationDue_Disabled(t *testing.T) {
	s := newSeries(types.RecurringFrequencyMonthly, day(2024, time.March, 10), 10)

	s.NotificationDaysBefore = 0
	assert.False(t, s.NotificationDue(day(2024, time.March, 10)))

	s.NotificationDaysBefore = 1
	s.SeriesStatus = types.RecurringSeriesStatusPaused
	assert.False(t, s.NotificationDue(day(2024, time.March, 9)))
}
