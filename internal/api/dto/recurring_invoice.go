package dto

import (
	"context"
	"time"

	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
	"github.com/flexprice/recurring/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ItemTemplateRequest is one line item template on the wire
type ItemTemplateRequest struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description" validate:"required_without=ProductID,max=1000"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
}

func (r ItemTemplateRequest) ToItemTemplate() recurringinvoice.ItemTemplate {
	return recurringinvoice.ItemTemplate{
		ProductID:   r.ProductID,
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
	}
}

type CreateRecurringInvoiceRequest struct {
	ClientID               string                   `json:"client_id" validate:"required"`
	Name                   string                   `json:"name,omitempty" validate:"omitempty,max=255"`
	Frequency              types.RecurringFrequency `json:"frequency" validate:"required"`
	StartDate              string                   `json:"start_date" validate:"required"`
	EndDate                *string                  `json:"end_date,omitempty"`
	DayOfMonth             int                      `json:"day_of_month" validate:"required,min=1,max=31"`
	AutoSend               bool                     `json:"auto_send"`
	RecipientEmail         string                   `json:"recipient_email,omitempty" validate:"omitempty,email"`
	NotificationDaysBefore int                      `json:"notification_days_before" validate:"min=0"`
	Items                  []ItemTemplateRequest    `json:"items" validate:"required,min=1,dive"`
}

func (r *CreateRecurringInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.AutoSend && r.RecipientEmail == "" {
		return ierr.NewError("recipient_email is required when auto_send is enabled").
			WithHint("Please provide a recipient email to send invoices automatically").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToSeries builds a new active series. The first generation date is placed
// on dayOfMonth at or after the start date.
func (r *CreateRecurringInvoiceRequest) ToSeries(ctx context.Context) (*recurringinvoice.Series, error) {
	start, err := types.ParseDate(r.StartDate)
	if err != nil {
		return nil, err
	}

	var end *time.Time
	if r.EndDate != nil && *r.EndDate != "" {
		parsed, err := types.ParseDate(*r.EndDate)
		if err != nil {
			return nil, err
		}
		end = &parsed
	}

	items := lo.Map(r.Items, func(item ItemTemplateRequest, _ int) recurringinvoice.ItemTemplate {
		return item.ToItemTemplate()
	})

	return &recurringinvoice.Series{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECURRING_INVOICE),
		ClientID:               r.ClientID,
		Name:                   r.Name,
		Frequency:              r.Frequency,
		StartDate:              start,
		EndDate:                end,
		DayOfMonth:             r.DayOfMonth,
		NextGenerationDate:     recurringinvoice.InitialGenerationDate(start, r.DayOfMonth),
		SeriesStatus:           types.RecurringSeriesStatusActive,
		AutoSend:               r.AutoSend,
		RecipientEmail:         r.RecipientEmail,
		NotificationDaysBefore: r.NotificationDaysBefore,
		Items:                  items,
		Version:                1,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}, nil
}

// UpdateRecurringInvoiceRequest is a partial update; nil fields are left unchanged.
// ClearEndDate removes an existing end date.
type UpdateRecurringInvoiceRequest struct {
	Name                   *string                   `json:"name,omitempty" validate:"omitempty,max=255"`
	Frequency              *types.RecurringFrequency `json:"frequency,omitempty"`
	StartDate              *string                   `json:"start_date,omitempty"`
	EndDate                *string                   `json:"end_date,omitempty"`
	ClearEndDate           bool                      `json:"clear_end_date,omitempty"`
	DayOfMonth             *int                      `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
	AutoSend               *bool                     `json:"auto_send,omitempty"`
	RecipientEmail         *string                   `json:"recipient_email,omitempty" validate:"omitempty,email"`
	NotificationDaysBefore *int                      `json:"notification_days_before,omitempty" validate:"omitempty,min=0"`
	Items                  []ItemTemplateRequest     `json:"items,omitempty" validate:"omitempty,dive"`
}

func (r *UpdateRecurringInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Frequency != nil {
		if err := r.Frequency.Validate(); err != nil {
			return err
		}
	}
	if r.ClearEndDate && r.EndDate != nil {
		return ierr.NewError("end_date and clear_end_date are mutually exclusive").
			WithHint("Either set a new end date or clear it, not both").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type UpdateRecurringInvoiceStatusRequest struct {
	Status types.RecurringSeriesStatus `json:"status" validate:"required"`
}

func (r *UpdateRecurringInvoiceStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Status.Validate()
}

// ItemTemplateResponse mirrors ItemTemplate with date-free wire types
type ItemTemplateResponse struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
}

type RecurringInvoiceResponse struct {
	ID                     string                      `json:"id"`
	ClientID               string                      `json:"client_id"`
	Name                   string                      `json:"name,omitempty"`
	Frequency              types.RecurringFrequency    `json:"frequency"`
	StartDate              string                      `json:"start_date"`
	EndDate                *string                     `json:"end_date,omitempty"`
	DayOfMonth             int                         `json:"day_of_month"`
	NextGenerationDate     string                      `json:"next_generation_date"`
	Status                 types.RecurringSeriesStatus `json:"status"`
	AutoSend               bool                        `json:"auto_send"`
	RecipientEmail         string                      `json:"recipient_email,omitempty"`
	NotificationDaysBefore int                         `json:"notification_days_before"`
	TotalInvoicesGenerated int                         `json:"total_invoices_generated"`
	Items                  []ItemTemplateResponse      `json:"items"`
	Version                int                         `json:"version"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
	CreatedBy              string                      `json:"created_by,omitempty"`
	UpdatedBy              string                      `json:"updated_by,omitempty"`
}

func NewRecurringInvoiceResponse(s *recurringinvoice.Series) *RecurringInvoiceResponse {
	if s == nil {
		return nil
	}
	return &RecurringInvoiceResponse{
		ID:                     s.ID,
		ClientID:               s.ClientID,
		Name:                   s.Name,
		Frequency:              s.Frequency,
		StartDate:              types.FormatDate(s.StartDate),
		EndDate:                formatOptionalDate(s.EndDate),
		DayOfMonth:             s.DayOfMonth,
		NextGenerationDate:     types.FormatDate(s.NextGenerationDate),
		Status:                 s.SeriesStatus,
		AutoSend:               s.AutoSend,
		RecipientEmail:         s.RecipientEmail,
		NotificationDaysBefore: s.NotificationDaysBefore,
		TotalInvoicesGenerated: s.TotalInvoicesGenerated,
		Items: lo.Map(s.Items, func(item recurringinvoice.ItemTemplate, _ int) ItemTemplateResponse {
			return ItemTemplateResponse(item)
		}),
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		CreatedBy: s.CreatedBy,
		UpdatedBy: s.UpdatedBy,
	}
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return lo.ToPtr(types.FormatDate(*t))
}

// ListRecurringInvoicesResponse represents the response for listing recurring invoices
type ListRecurringInvoicesResponse = types.ListResponse[*RecurringInvoiceResponse]

// LineItemResponse is a materialized, priced line item
type LineItemResponse struct {
	ProductID   string `json:"product_id,omitempty"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency,omitempty"`
}

type MaterializeResponse struct {
	RecurringInvoiceID string             `json:"recurring_invoice_id"`
	GenerationDate     string             `json:"generation_date"`
	LineItems          []LineItemResponse `json:"line_items"`
	Total              string             `json:"total"`
}

type GeneratedInvoiceResponse struct {
	ID             string    `json:"id"`
	InvoiceID      string    `json:"invoice_id"`
	GenerationDate string    `json:"generation_date"`
	SequenceNumber int       `json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewGeneratedInvoiceResponse(r *recurringinvoice.GeneratedInvoice) *GeneratedInvoiceResponse {
	return &GeneratedInvoiceResponse{
		ID:             r.ID,
		InvoiceID:      r.InvoiceID,
		GenerationDate: types.FormatDate(r.GenerationDate),
		SequenceNumber: r.SequenceNumber,
		CreatedAt:      r.CreatedAt,
	}
}

type ListGeneratedInvoicesResponse struct {
	Items []*GeneratedInvoiceResponse `json:"items"`
}

// GenerationResponse is the outcome of one fired generation
type GenerationResponse struct {
	InvoiceID        string                    `json:"invoice_id"`
	GenerationDate   string                    `json:"generation_date"`
	LineItems        []LineItemResponse        `json:"line_items"`
	Total            string                    `json:"total"`
	RecurringInvoice *RecurringInvoiceResponse `json:"recurring_invoice"`
}

// FireRecurringInvoiceRequest optionally pins the evaluation date; today (UTC) otherwise
type FireRecurringInvoiceRequest struct {
	AsOf string `json:"as_of,omitempty" form:"as_of"`
}

// AsOfDate resolves an optional YYYY-MM-DD date, defaulting to now's calendar day
func AsOfDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return types.ToDate(now), nil
	}
	return types.ParseDate(raw)
}

// SweepFailure describes one series that failed during a sweep
type SweepFailure struct {
	RecurringInvoiceID string `json:"recurring_invoice_id"`
	Error              string `json:"error"`
}

// SweepResponse summarizes a generation or reminder sweep
type SweepResponse struct {
	AsOf      string         `json:"as_of"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}
