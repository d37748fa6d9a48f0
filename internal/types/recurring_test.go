package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecurringFrequency_Validate(t *testing.T) {
	assert.NoError(t, RecurringFrequencyMonthly.Validate())
	assert.NoError(t, RecurringFrequencyQuarterly.Validate())
	assert.NoError(t, RecurringFrequencyYearly.Validate())
	assert.Error(t, RecurringFrequency("MONTHLY").Validate())
	assert.Error(t, RecurringFrequency("").Validate())
}

func TestRecurringSeriesStatus(t *testing.T) {
	assert.NoError(t, RecurringSeriesStatusPaused.Validate())
	assert.Error(t, RecurringSeriesStatus("draft").Validate())

	assert.True(t, RecurringSeriesStatusCompleted.IsTerminal())
	assert.True(t, RecurringSeriesStatusCancelled.IsTerminal())
	assert.False(t, RecurringSeriesStatusActive.IsTerminal())
	assert.False(t, RecurringSeriesStatusPaused.IsTerminal())
}
