package recurringinvoice

import (
	"time"

	"github.com/flexprice/recurring/internal/types"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newSeries(freq types.RecurringFrequency, start time.Time, dayOfMonth int) *Series {
	return &Series{
		ID:                 "rinv_test",
		ClientID:           "client_1",
		Frequency:          freq,
		StartDate:          start,
		DayOfMonth:         dayOfMonth,
		NextGenerationDate: InitialGenerationDate(start, dayOfMonth),
		SeriesStatus:       types.RecurringSeriesStatusActive,
		Items: ItemTemplates{{
			Description: "Service",
			Quantity:    decimal.RequireFromString("2"),
			UnitPrice:   decimal.RequireFromString("50.00"),
		}},
	}
}
