package types

import (
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/samber/lo"
)

// RecurringFrequency is the cadence of a recurring invoice series
type RecurringFrequency string

const (
	RecurringFrequencyMonthly   RecurringFrequency = "monthly"
	RecurringFrequencyQuarterly RecurringFrequency = "quarterly"
	RecurringFrequencyYearly    RecurringFrequency = "yearly"
)

func (f RecurringFrequency) String() string {
	return string(f)
}

// Months returns the length of one period in calendar months
func (f RecurringFrequency) Months() int {
	switch f {
	case RecurringFrequencyMonthly:
		return 1
	case RecurringFrequencyQuarterly:
		return 3
	case RecurringFrequencyYearly:
		return 12
	default:
		return 0
	}
}

func (f RecurringFrequency) Validate() error {
	allowed := []RecurringFrequency{
		RecurringFrequencyMonthly,
		RecurringFrequencyQuarterly,
		RecurringFrequencyYearly,
	}
	if !lo.Contains(allowed, f) {
		return ierr.NewError("invalid recurring frequency").
			WithHint("Frequency must be one of monthly, quarterly or yearly").
			WithReportableDetails(map[string]any{
				"frequency":      f,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecurringSeriesStatus is the scheduling status of a recurring invoice series
type RecurringSeriesStatus string

const (
	RecurringSeriesStatusActive    RecurringSeriesStatus = "active"
	RecurringSeriesStatusPaused    RecurringSeriesStatus = "paused"
	RecurringSeriesStatusCompleted RecurringSeriesStatus = "completed"
	RecurringSeriesStatusCancelled RecurringSeriesStatus = "cancelled"
)

func (s RecurringSeriesStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition or generation is possible
func (s RecurringSeriesStatus) IsTerminal() bool {
	return s == RecurringSeriesStatusCompleted || s == RecurringSeriesStatusCancelled
}

func (s RecurringSeriesStatus) Validate() error {
	allowed := []RecurringSeriesStatus{
		RecurringSeriesStatusActive,
		RecurringSeriesStatusPaused,
		RecurringSeriesStatusCompleted,
		RecurringSeriesStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid recurring series status").
			WithHint("Status must be one of active, paused, completed or cancelled").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PricePolicy decides which unit price is billed for catalog-bound items
type PricePolicy string

const (
	// PricePolicySnapshot bills the price copied into the template when the product was attached
	PricePolicySnapshot PricePolicy = "snapshot"
	// PricePolicyLive bills the catalog price at generation time
	PricePolicyLive PricePolicy = "live"
)

func (p PricePolicy) Validate() error {
	allowed := []PricePolicy{PricePolicySnapshot, PricePolicyLive}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid price policy").
			WithHint("Price policy must be snapshot or live").
			WithReportableDetails(map[string]any{
				"price_policy":   p,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
