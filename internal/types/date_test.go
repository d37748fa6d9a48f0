package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextGenerationDate_Monthly(t *testing.T) {
	tests := []struct {
		name       string
		from       time.Time
		dayOfMonth int
		want       time.Time
	}{
		{
			name:       "simple month",
			from:       date(2024, time.March, 10),
			dayOfMonth: 10,
			want:       date(2024, time.April, 10),
		},
		{
			name:       "day 31 into leap february",
			from:       date(2024, time.January, 31),
			dayOfMonth: 31,
			want:       date(2024, time.February, 29),
		},
		{
			name:       "day 31 into non leap february",
			from:       date(2023, time.January, 31),
			dayOfMonth: 31,
			want:       date(2023, time.February, 28),
		},
		{
			name:       "clamped february returns to day 31",
			from:       date(2024, time.February, 29),
			dayOfMonth: 31,
			want:       date(2024, time.March, 31),
		},
		{
			name:       "day 31 into 30 day month",
			from:       date(2024, time.March, 31),
			dayOfMonth: 31,
			want:       date(2024, time.April, 30),
		},
		{
			name:       "day 30 into february",
			from:       date(2025, time.January, 30),
			dayOfMonth: 30,
			want:       date(2025, time.February, 28),
		},
		{
			name:       "cross year boundary",
			from:       date(2024, time.December, 15),
			dayOfMonth: 15,
			want:       date(2025, time.January, 15),
		},
		{
			name:       "time of day is dropped",
			from:       time.Date(2024, time.May, 5, 23, 30, 0, 0, time.UTC),
			dayOfMonth: 5,
			want:       date(2024, time.June, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextGenerationDate(tt.from, RecurringFrequencyMonthly, tt.dayOfMonth)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextGenerationDate_Quarterly(t *testing.T) {
	tests := []struct {
		name       string
		from       time.Time
		dayOfMonth int
		want       time.Time
	}{
		{
			name:       "november into leap february",
			from:       date(2023, time.November, 30),
			dayOfMonth: 31,
			want:       date(2024, time.February, 29),
		},
		{
			name:       "november into non leap february",
			from:       date(2024, time.November, 30),
			dayOfMonth: 31,
			want:       date(2025, time.February, 28),
		},
		{
			name:       "february back into may restores day 31",
			from:       date(2025, time.February, 28),
			dayOfMonth: 31,
			want:       date(2025, time.May, 31),
		},
		{
			name:       "october into january",
			from:       date(2024, time.October, 1),
			dayOfMonth: 1,
			want:       date(2025, time.January, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextGenerationDate(tt.from, RecurringFrequencyQuarterly, tt.dayOfMonth)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextGenerationDate_Yearly(t *testing.T) {
	tests := []struct {
		name       string
		from       time.Time
		dayOfMonth int
		want       time.Time
	}{
		{
			name:       "leap day to non leap year",
			from:       date(2024, time.February, 29),
			dayOfMonth: 29,
			want:       date(2025, time.February, 28),
		},
		{
			name:       "non leap february back to leap year",
			from:       date(2027, time.February, 28),
			dayOfMonth: 31,
			want:       date(2028, time.February, 29),
		},
		{
			name:       "plain year",
			from:       date(2024, time.March, 1),
			dayOfMonth: 1,
			want:       date(2025, time.March, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextGenerationDate(tt.from, RecurringFrequencyYearly, tt.dayOfMonth)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextGenerationDate_Day31RoundTrip(t *testing.T) {
	// Walk a whole year and check the day-31 series always lands on the month end.
	current := date(2024, time.January, 31)
	for i := 0; i < 24; i++ {
		next, err := NextGenerationDate(current, RecurringFrequencyMonthly, 31)
		require.NoError(t, err)
		assert.Equal(t, LastDayOfMonth(next.Year(), next.Month()), next.Day(), "step %d landed on %v", i, next)
		current = next
	}
}

func TestNextGenerationDate_Invalid(t *testing.T) {
	_, err := NextGenerationDate(date(2024, time.January, 1), RecurringFrequency("weekly"), 1)
	assert.Error(t, err)

	_, err = NextGenerationDate(date(2024, time.January, 1), RecurringFrequencyMonthly, 0)
	assert.Error(t, err)

	_, err = NextGenerationDate(date(2024, time.January, 1), RecurringFrequencyMonthly, 32)
	assert.Error(t, err)
}

func TestLastDayOfMonth(t *testing.T) {
	assert.Equal(t, 29, LastDayOfMonth(2024, time.February))
	assert.Equal(t, 28, LastDayOfMonth(2023, time.February))
	assert.Equal(t, 28, LastDayOfMonth(1900, time.February))
	assert.Equal(t, 29, LastDayOfMonth(2000, time.February))
	assert.Equal(t, 31, LastDayOfMonth(2024, time.December))
	assert.Equal(t, 30, LastDayOfMonth(2024, time.April))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.True(t, got.Equal(date(2024, time.February, 29)))

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}
