package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/recurring/internal/api/dto"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/types"
	webhookPublisher "github.com/flexprice/recurring/internal/webhook/publisher"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// conflictRetryDelay is the pause before the single retry that follows a
// stale optimistic-concurrency token
const conflictRetryDelay = 20 * time.Millisecond

type RecurringInvoiceService interface {
	CreateRecurringInvoice(ctx context.Context, req dto.CreateRecurringInvoiceRequest) (*dto.RecurringInvoiceResponse, error)
	GetRecurringInvoice(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error)
	ListRecurringInvoices(ctx context.Context, filter *types.RecurringInvoiceFilter) (*dto.ListRecurringInvoicesResponse, error)
	UpdateRecurringInvoice(ctx context.Context, id string, req dto.UpdateRecurringInvoiceRequest) (*dto.RecurringInvoiceResponse, error)
	DeleteRecurringInvoice(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status types.RecurringSeriesStatus) (*dto.RecurringInvoiceResponse, error)
	ListDueRecurringInvoices(ctx context.Context, asOf time.Time) (*dto.ListRecurringInvoicesResponse, error)
	Materialize(ctx context.Context, id string) (*dto.MaterializeResponse, error)
	Fire(ctx context.Context, id string, asOf time.Time) (*dto.GenerationResponse, error)
	ListGeneratedInvoices(ctx context.Context, id string) (*dto.ListGeneratedInvoicesResponse, error)
}

type recurringInvoiceService struct {
	ServiceParams
	resolver LineItemResolver
}

func NewRecurringInvoiceService(params ServiceParams) RecurringInvoiceService {
	return &recurringInvoiceService{
		ServiceParams: params,
		resolver:      NewLineItemResolver(params),
	}
}

func (s *recurringInvoiceService) CreateRecurringInvoice(ctx context.Context, req dto.CreateRecurringInvoiceRequest) (*dto.RecurringInvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	series, err := req.ToSeries(ctx)
	if err != nil {
		return nil, err
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	if err := s.RecurringInvoiceRepo.Create(ctx, series); err != nil {
		// No need to wrap the error as the repository already returns properly formatted errors
		return nil, err
	}

	s.Logger.Infow("created recurring invoice",
		"series_id", series.ID,
		"client_id", series.ClientID,
		"frequency", series.Frequency,
		"next_generation_date", types.FormatDate(series.NextGenerationDate),
	)

	return dto.NewRecurringInvoiceResponse(series), nil
}

func (s *recurringInvoiceService) GetRecurringInvoice(ctx context.Context, id string) (*dto.RecurringInvoiceResponse, error) {
	if id == "" {
		return nil, ierr.NewError("recurring invoice ID is required").
			WithHint("Recurring invoice ID is required").
			Mark(ierr.ErrValidation)
	}

	series, err := s.RecurringInvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRecurringInvoiceResponse(series), nil
}

func (s *recurringInvoiceService) ListRecurringInvoices(ctx context.Context, filter *types.RecurringInvoiceFilter) (*dto.ListRecurringInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewRecurringInvoiceFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation)
	}

	series, err := s.RecurringInvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.RecurringInvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(series, func(item *recurringinvoice.Series, _ int) *dto.RecurringInvoiceResponse {
		return dto.NewRecurringInvoiceResponse(item)
	})

	return &dto.ListRecurringInvoicesResponse{
		Items:      items,
		Pagination: types.NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *recurringInvoiceService) UpdateRecurringInvoice(ctx context.Context, id string, req dto.UpdateRecurringInvoiceRequest) (*dto.RecurringInvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out *recurringinvoice.Series
	err := retryOnConflict(ctx, s.Logger, "update", id, func() error {
		series, err := s.RecurringInvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := series.EnsureEditable(); err != nil {
			return err
		}

		updated := series.Copy()
		if err := applyUpdate(updated, &req); err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()
		updated.UpdatedBy = types.GetUserID(ctx)

		if err := updated.Validate(); err != nil {
			return err
		}
		if err := s.RecurringInvoiceRepo.Update(ctx, updated); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("updated recurring invoice",
		"series_id", out.ID,
		"next_generation_date", types.FormatDate(out.NextGenerationDate),
		"version", out.Version,
	)
	return dto.NewRecurringInvoiceResponse(out), nil
}

// applyUpdate merges a partial update into s. The cadence (frequency and
// start date) is frozen once an invoice was generated; a new day of month
// re-targets the pending generation inside its month.
func applyUpdate(s *recurringinvoice.Series, req *dto.UpdateRecurringInvoiceRequest) error {
	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.AutoSend != nil {
		s.AutoSend = *req.AutoSend
	}
	if req.RecipientEmail != nil {
		s.RecipientEmail = *req.RecipientEmail
	}
	if req.NotificationDaysBefore != nil {
		s.NotificationDaysBefore = *req.NotificationDaysBefore
	}
	if req.Items != nil {
		s.Items = lo.Map(req.Items, func(item dto.ItemTemplateRequest, _ int) recurringinvoice.ItemTemplate {
			return item.ToItemTemplate()
		})
	}

	generated := s.TotalInvoicesGenerated > 0
	reanchor := false

	if req.Frequency != nil && *req.Frequency != s.Frequency {
		if generated {
			return newFrozenCadenceError(s, "frequency")
		}
		s.Frequency = *req.Frequency
	}

	if req.StartDate != nil {
		start, err := types.ParseDate(*req.StartDate)
		if err != nil {
			return err
		}
		if !start.Equal(s.StartDate) {
			if generated {
				return newFrozenCadenceError(s, "start_date")
			}
			s.StartDate = start
			reanchor = true
		}
	}

	if req.DayOfMonth != nil && *req.DayOfMonth != s.DayOfMonth {
		if err := types.ValidateDayOfMonth(*req.DayOfMonth); err != nil {
			return err
		}
		s.DayOfMonth = *req.DayOfMonth
		reanchor = true
	}

	if reanchor {
		if generated {
			pending := s.NextGenerationDate
			s.NextGenerationDate = types.ClampedDate(pending.Year(), pending.Month(), s.DayOfMonth)
			if s.NextGenerationDate.Before(s.StartDate) {
				s.NextGenerationDate = recurringinvoice.InitialGenerationDate(s.StartDate, s.DayOfMonth)
			}
		} else {
			s.NextGenerationDate = recurringinvoice.InitialGenerationDate(s.StartDate, s.DayOfMonth)
		}
	}

	if req.ClearEndDate {
		s.EndDate = nil
	}
	if req.EndDate != nil {
		end, err := types.ParseDate(*req.EndDate)
		if err != nil {
			return err
		}
		s.EndDate = &end
	}

	return nil
}

func newFrozenCadenceError(s *recurringinvoice.Series, field string) error {
	return ierr.NewErrorf("%s cannot change after the first generation", field).
		WithHintf("The %s of a recurring invoice cannot change once an invoice was generated", field).
		WithReportableDetails(map[string]any{
			"series_id":                s.ID,
			"field":                    field,
			"total_invoices_generated": s.TotalInvoicesGenerated,
		}).
		Mark(ierr.ErrInvalidOperation)
}

func (s *recurringInvoiceService) DeleteRecurringInvoice(ctx context.Context, id string) error {
	if id == "" {
		return ierr.NewError("recurring invoice ID is required").
			WithHint("Recurring invoice ID is required").
			Mark(ierr.ErrValidation)
	}

	if err := s.RecurringInvoiceRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.Logger.Infow("deleted recurring invoice", "series_id", id)
	return nil
}

func (s *recurringInvoiceService) SetStatus(ctx context.Context, id string, status types.RecurringSeriesStatus) (*dto.RecurringInvoiceResponse, error) {
	var (
		out     *recurringinvoice.Series
		changed bool
	)

	err := retryOnConflict(ctx, s.Logger, "set_status", id, func() error {
		series, err := s.RecurringInvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		updated := series.Copy()
		if err := updated.TransitionTo(status); err != nil {
			return err
		}
		if updated.SeriesStatus == series.SeriesStatus {
			out, changed = series, false
			return nil
		}

		updated.UpdatedAt = time.Now().UTC()
		updated.UpdatedBy = types.GetUserID(ctx)
		if err := s.RecurringInvoiceRepo.Update(ctx, updated); err != nil {
			return err
		}
		out, changed = updated, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.Logger.Infow("recurring invoice status changed",
			"series_id", out.ID,
			"series_status", out.SeriesStatus,
		)
		if out.SeriesStatus == types.RecurringSeriesStatusCancelled {
			s.publishSeriesEvent(ctx, types.WebhookEventRecurringInvoiceCancelled, out, nil)
		}
	}

	return dto.NewRecurringInvoiceResponse(out), nil
}

func (s *recurringInvoiceService) ListDueRecurringInvoices(ctx context.Context, asOf time.Time) (*dto.ListRecurringInvoicesResponse, error) {
	due, err := s.RecurringInvoiceRepo.ListDue(ctx, types.ToDate(asOf))
	if err != nil {
		return nil, err
	}

	items := lo.Map(due, func(item *recurringinvoice.Series, _ int) *dto.RecurringInvoiceResponse {
		return dto.NewRecurringInvoiceResponse(item)
	})
	resp := types.NewListResponse(items, len(items), len(items), 0)
	return &resp, nil
}

func (s *recurringInvoiceService) Materialize(ctx context.Context, id string) (*dto.MaterializeResponse, error) {
	series, err := s.RecurringInvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.resolver.Materialize(ctx, series)
	if err != nil {
		return nil, err
	}

	return &dto.MaterializeResponse{
		RecurringInvoiceID: series.ID,
		GenerationDate:     types.FormatDate(series.NextGenerationDate),
		LineItems:          toLineItemResponses(items),
		Total:              invoicing.FormatAmount(invoicing.SumAmounts(items)),
	}, nil
}

// generation is the outcome of one successful fire cycle
type generation struct {
	series    *recurringinvoice.Series
	invoiceID string
	date      time.Time
	items     []invoicing.LineItem
	total     decimal.Decimal
	record    *recurringinvoice.GeneratedInvoice
}

// Fire generates the pending invoice of a due series and advances its
// schedule. Invoice creation is keyed on (series, generation date) so a
// replayed cycle never produces a second invoice. A stale version on save
// reruns the whole cycle once from a fresh read.
func (s *recurringInvoiceService) Fire(ctx context.Context, id string, asOf time.Time) (*dto.GenerationResponse, error) {
	today := types.ToDate(asOf)

	var gen *generation
	err := retryOnConflict(ctx, s.Logger, "fire", id, func() error {
		g, err := s.fireOnce(ctx, id, today)
		if err != nil {
			return err
		}
		gen = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishGenerationEvents(ctx, gen)

	return &dto.GenerationResponse{
		InvoiceID:        gen.invoiceID,
		GenerationDate:   types.FormatDate(gen.date),
		LineItems:        toLineItemResponses(gen.items),
		Total:            invoicing.FormatAmount(gen.total),
		RecurringInvoice: dto.NewRecurringInvoiceResponse(gen.series),
	}, nil
}

func (s *recurringInvoiceService) fireOnce(ctx context.Context, id string, today time.Time) (*generation, error) {
	series, err := s.RecurringInvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !series.IsDue(today) {
		return nil, recurringinvoice.NewNotDueError(series, today)
	}

	items, err := s.resolver.Materialize(ctx, series)
	if err != nil {
		return nil, err
	}
	total := invoicing.SumAmounts(items)
	generationDate := series.NextGenerationDate
	key := s.IdempotencyGenerator.GenerationKey(series.ID, generationDate)

	resp, err := s.InvoiceCreator.CreateInvoice(ctx, &invoicing.CreateInvoiceRequest{
		IdempotencyKey: key,
		ClientID:       series.ClientID,
		SeriesID:       series.ID,
		GenerationDate: generationDate,
		LineItems:      items,
		Total:          invoicing.FormatAmount(total),
		AutoSend:       series.AutoSend,
		RecipientEmail: series.RecipientEmail,
	})
	if err != nil {
		return nil, err
	}

	// status is re-checked here: the series may have been paused while the
	// invoice was being created
	updated, err := recurringinvoice.Advance(series, today)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()
	updated.UpdatedBy = types.GetUserID(ctx)

	record := &recurringinvoice.GeneratedInvoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECURRING_INVOICE_GENERATED),
		SeriesID:       series.ID,
		InvoiceID:      resp.InvoiceID,
		GenerationDate: generationDate,
		SequenceNumber: updated.TotalInvoicesGenerated,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.RecurringInvoiceRepo.Update(txCtx, updated); err != nil {
			return err
		}
		// a replayed cycle may find its record already written
		err := s.DB.WithTx(txCtx, func(spCtx context.Context) error {
			return s.GeneratedInvoiceRepo.Create(spCtx, record)
		})
		if err != nil && !ierr.IsAlreadyExists(err) {
			return err
		}
		return nil
	})
	if err != nil {
		// the invoice exists upstream even though the series did not advance
		s.recordOrphanedGeneration(ctx, record, err)
		return nil, err
	}

	s.Logger.Infow("generated recurring invoice",
		"series_id", updated.ID,
		"invoice_id", resp.InvoiceID,
		"generation_date", types.FormatDate(generationDate),
		"next_generation_date", types.FormatDate(updated.NextGenerationDate),
		"series_status", updated.SeriesStatus,
		"total_invoices_generated", updated.TotalInvoicesGenerated,
	)

	return &generation{
		series:    updated,
		invoiceID: resp.InvoiceID,
		date:      generationDate,
		items:     items,
		total:     total,
		record:    record,
	}, nil
}

// recordOrphanedGeneration keeps the audit trail of an invoice whose series
// save failed. The next fire of the same date reuses the invoice through its
// idempotency key and finds this record already written.
func (s *recurringInvoiceService) recordOrphanedGeneration(ctx context.Context, record *recurringinvoice.GeneratedInvoice, cause error) {
	err := s.GeneratedInvoiceRepo.Create(ctx, record)
	if err != nil && !ierr.IsAlreadyExists(err) {
		s.Logger.Errorw("failed to record generated invoice after failed series save",
			"series_id", record.SeriesID,
			"invoice_id", record.InvoiceID,
			"generation_date", types.FormatDate(record.GenerationDate),
			"cause", cause,
			"error", err,
		)
		s.Sentry.CaptureExceptionWithTags(err, map[string]string{
			"series_id":  record.SeriesID,
			"invoice_id": record.InvoiceID,
		})
		return
	}
	s.Logger.Warnw("recorded generated invoice for a series that did not advance",
		"series_id", record.SeriesID,
		"invoice_id", record.InvoiceID,
		"generation_date", types.FormatDate(record.GenerationDate),
		"cause", cause,
	)
}

func (s *recurringInvoiceService) ListGeneratedInvoices(ctx context.Context, id string) (*dto.ListGeneratedInvoicesResponse, error) {
	if _, err := s.RecurringInvoiceRepo.Get(ctx, id); err != nil {
		return nil, err
	}

	records, err := s.GeneratedInvoiceRepo.ListBySeries(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.ListGeneratedInvoicesResponse{
		Items: lo.Map(records, func(r *recurringinvoice.GeneratedInvoice, _ int) *dto.GeneratedInvoiceResponse {
			return dto.NewGeneratedInvoiceResponse(r)
		}),
	}, nil
}

// seriesEventPayload is the body of recurring invoice webhook events
type seriesEventPayload struct {
	RecurringInvoiceID     string `json:"recurring_invoice_id"`
	ClientID               string `json:"client_id"`
	Status                 string `json:"status"`
	NextGenerationDate     string `json:"next_generation_date"`
	TotalInvoicesGenerated int    `json:"total_invoices_generated"`
	InvoiceID              string `json:"invoice_id,omitempty"`
	GenerationDate         string `json:"generation_date,omitempty"`
	Total                  string `json:"total,omitempty"`
}

func (s *recurringInvoiceService) publishGenerationEvents(ctx context.Context, gen *generation) {
	s.publishSeriesEvent(ctx, types.WebhookEventRecurringInvoiceGenerated, gen.series, gen)
	if gen.series.SeriesStatus == types.RecurringSeriesStatusCompleted {
		s.publishSeriesEvent(ctx, types.WebhookEventRecurringInvoiceCompleted, gen.series, nil)
	}
}

func (s *recurringInvoiceService) publishSeriesEvent(ctx context.Context, eventName string, series *recurringinvoice.Series, gen *generation) {
	payload := seriesEventPayload{
		RecurringInvoiceID:     series.ID,
		ClientID:               series.ClientID,
		Status:                 string(series.SeriesStatus),
		NextGenerationDate:     types.FormatDate(series.NextGenerationDate),
		TotalInvoicesGenerated: series.TotalInvoicesGenerated,
	}
	if gen != nil {
		payload.InvoiceID = gen.invoiceID
		payload.GenerationDate = types.FormatDate(gen.date)
		payload.Total = invoicing.FormatAmount(gen.total)
	}

	event, err := webhookPublisher.NewEvent(ctx, eventName, payload)
	if err != nil {
		s.Logger.Errorw("failed to build webhook event", "event_name", eventName, "error", err)
		return
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorf("failed to publish %s event: %v", event.EventName, err)
	}
}

func toLineItemResponses(items []invoicing.LineItem) []dto.LineItemResponse {
	return lo.Map(items, func(item invoicing.LineItem, _ int) dto.LineItemResponse {
		return dto.LineItemResponse{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   invoicing.FormatAmount(item.UnitPrice),
			Amount:      invoicing.FormatAmount(item.Amount),
			Currency:    item.Currency,
		}
	})
}

// retryOnConflict runs op and, when it fails on a stale version, runs it
// exactly once more. Any other error, or a second conflict, is returned.
func retryOnConflict(ctx context.Context, log *logger.Logger, operation, seriesID string, op func() error) error {
	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(conflictRetryDelay), 1),
		ctx,
	)

	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !ierr.IsVersionConflict(err) {
			return backoff.Permanent(err)
		}
		log.Warnw("version conflict on recurring invoice",
			"operation", operation,
			"series_id", seriesID,
			"attempt", attempt,
		)
		return err
	}, policy)
}
