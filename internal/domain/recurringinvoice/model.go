package recurringinvoice

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var fieldValidator = validator.New()

// Series is a recurring invoice schedule: a client, a cadence anchored on a
// day of month, and the item templates billed on every generation.
type Series struct {
	// ID is the unique identifier of the series
	ID string `db:"id" json:"id"`

	// ClientID is the billing recipient. It never changes after creation.
	ClientID string `db:"client_id" json:"client_id"`

	// Name is an optional human label
	Name string `db:"name" json:"name,omitempty"`

	// Frequency is the cadence of generation
	Frequency types.RecurringFrequency `db:"frequency" json:"frequency"`

	// StartDate is the first possible generation anchor
	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate optionally bounds the series. Once the next generation would
	// land after it the series is completed.
	EndDate *time.Time `db:"end_date" json:"end_date,omitempty"`

	// DayOfMonth is the target day within each period, clamped in short months
	DayOfMonth int `db:"day_of_month" json:"day_of_month"`

	// NextGenerationDate is the anchor read to decide due-ness
	NextGenerationDate time.Time `db:"next_generation_date" json:"next_generation_date"`

	// SeriesStatus is the scheduling status
	SeriesStatus types.RecurringSeriesStatus `db:"series_status" json:"series_status"`

	// AutoSend dispatches generated invoices to RecipientEmail without confirmation
	AutoSend bool `db:"auto_send" json:"auto_send"`

	// RecipientEmail is required when AutoSend is set
	RecipientEmail string `db:"recipient_email" json:"recipient_email,omitempty"`

	// NotificationDaysBefore is how many days ahead a reminder goes out; 0 disables reminders
	NotificationDaysBefore int `db:"notification_days_before" json:"notification_days_before"`

	// TotalInvoicesGenerated only ever increases
	TotalInvoicesGenerated int `db:"total_invoices_generated" json:"total_invoices_generated"`

	// Items are the line item templates, at least one
	Items ItemTemplates `db:"items" json:"items"`

	// Version is the optimistic concurrency token checked on every update
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// ItemTemplate is a stored line item, optionally bound to a catalog product.
// UnitPrice is the price agreed when the template was saved.
type ItemTemplate struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ItemTemplates is persisted as a single JSONB column
type ItemTemplates []ItemTemplate

func (t ItemTemplates) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *ItemTemplates) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = ItemTemplates{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for item templates", src)
	}
	return json.Unmarshal(data, t)
}

// GeneratedInvoice records one concrete invoice produced by a series
type GeneratedInvoice struct {
	ID             string    `db:"id" json:"id"`
	SeriesID       string    `db:"series_id" json:"series_id"`
	InvoiceID      string    `db:"invoice_id" json:"invoice_id"`
	GenerationDate time.Time `db:"generation_date" json:"generation_date"`
	SequenceNumber int       `db:"sequence_number" json:"sequence_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Copy returns a deep copy so schedule computations never mutate the loaded value
func (s *Series) Copy() *Series {
	if s == nil {
		return nil
	}
	cp := *s
	if s.EndDate != nil {
		end := *s.EndDate
		cp.EndDate = &end
	}
	if s.Items != nil {
		cp.Items = make(ItemTemplates, len(s.Items))
		copy(cp.Items, s.Items)
	}
	return &cp
}

// Validate checks every invariant a persisted series must satisfy
func (s *Series) Validate() error {
	if s.ClientID == "" {
		return ierr.NewError("client_id is required").
			WithHint("A recurring invoice needs a client").
			Mark(ierr.ErrValidation)
	}
	if err := s.Frequency.Validate(); err != nil {
		return err
	}
	if err := s.SeriesStatus.Validate(); err != nil {
		return err
	}
	if err := types.ValidateDayOfMonth(s.DayOfMonth); err != nil {
		return err
	}
	if s.StartDate.IsZero() {
		return ierr.NewError("start_date is required").
			WithHint("Start date is required").
			Mark(ierr.ErrValidation)
	}
	if s.EndDate != nil && types.ToDate(*s.EndDate).Before(types.ToDate(s.StartDate)) {
		return ierr.NewError("end_date before start_date").
			WithHint("End date cannot be before the start date").
			WithReportableDetails(map[string]any{
				"start_date": types.FormatDate(s.StartDate),
				"end_date":   types.FormatDate(*s.EndDate),
			}).
			Mark(ierr.ErrValidation)
	}
	if types.ToDate(s.NextGenerationDate).Before(types.ToDate(s.StartDate)) {
		return ierr.NewError("next_generation_date before start_date").
			WithHint("Next generation date cannot be before the start date").
			Mark(ierr.ErrValidation)
	}
	// a completed series keeps its last generation date, so this holds for
	// every status
	if s.EndDate != nil && types.ToDate(*s.EndDate).Before(types.ToDate(s.NextGenerationDate)) {
		return ierr.NewError("end_date before next_generation_date").
			WithHint("End date cannot be before the next generation date").
			WithReportableDetails(map[string]any{
				"end_date":             types.FormatDate(*s.EndDate),
				"next_generation_date": types.FormatDate(s.NextGenerationDate),
			}).
			Mark(ierr.ErrValidation)
	}
	if s.AutoSend && s.RecipientEmail == "" {
		return ierr.NewError("recipient_email is required when auto_send is enabled").
			WithHint("Please provide a recipient email to send invoices automatically").
			Mark(ierr.ErrValidation)
	}
	if s.RecipientEmail != "" {
		if err := fieldValidator.Var(s.RecipientEmail, "email"); err != nil {
			return ierr.WithError(err).
				WithHint("Recipient email is not a valid address").
				Mark(ierr.ErrValidation)
		}
	}
	if s.NotificationDaysBefore < 0 {
		return ierr.NewError("notification_days_before must not be negative").
			WithHint("Notification days before must be zero or more").
			Mark(ierr.ErrValidation)
	}
	if s.TotalInvoicesGenerated < 0 {
		return ierr.NewError("total_invoices_generated must not be negative").
			Mark(ierr.ErrValidation)
	}
	return s.Items.Validate()
}

// Validate checks the template list is non-empty and every entry is billable
func (t ItemTemplates) Validate() error {
	if len(t) == 0 {
		return ierr.NewError("at least one item is required").
			WithHint("A recurring invoice needs at least one line item").
			Mark(ierr.ErrValidation)
	}
	for i, item := range t {
		if item.Description == "" && item.ProductID == "" {
			return ierr.NewErrorf("item %d has no description", i).
				WithHint("Every line item needs a description or a product").
				WithReportableDetails(map[string]any{"item_index": i}).
				Mark(ierr.ErrValidation)
		}
		if !item.Quantity.IsPositive() {
			return ierr.NewErrorf("item %d quantity must be positive", i).
				WithHint("Quantity must be greater than zero").
				WithReportableDetails(map[string]any{
					"item_index": i,
					"quantity":   item.Quantity.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return ierr.NewErrorf("item %d unit price is negative", i).
				WithHint("Unit price cannot be negative").
				WithReportableDetails(map[string]any{
					"item_index": i,
					"unit_price": item.UnitPrice.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
