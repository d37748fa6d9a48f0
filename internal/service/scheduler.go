package service

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/recurring/internal/api/dto"
	"github.com/flexprice/recurring/internal/cache"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/sentry"
	"github.com/flexprice/recurring/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	// reminderDedupTTL outlives the reminder window of a single generation date
	reminderDedupTTL = 72 * time.Hour
	reminderPageSize = 200
)

// SchedulerService runs the periodic sweeps over all series
type SchedulerService interface {
	ProcessDueSeries(ctx context.Context, asOf time.Time) (*dto.SweepResponse, error)
	ProcessReminders(ctx context.Context, asOf time.Time) (*dto.SweepResponse, error)
}

type schedulerService struct {
	ServiceParams
	recurringInvoices RecurringInvoiceService
}

func NewSchedulerService(params ServiceParams, recurringInvoices RecurringInvoiceService) SchedulerService {
	return &schedulerService{
		ServiceParams:     params,
		recurringInvoices: recurringInvoices,
	}
}

// sweepTally collects per-series outcomes from concurrent workers
type sweepTally struct {
	mu   sync.Mutex
	resp *dto.SweepResponse
}

func newSweepTally(asOf time.Time, total int) *sweepTally {
	return &sweepTally{resp: &dto.SweepResponse{AsOf: types.FormatDate(asOf), Total: total}}
}

func (t *sweepTally) succeeded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resp.Succeeded++
}

func (t *sweepTally) skipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resp.Skipped++
}

func (t *sweepTally) failed(seriesID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resp.Failed++
	t.resp.Failures = append(t.resp.Failures, dto.SweepFailure{
		RecurringInvoiceID: seriesID,
		Error:              err.Error(),
	})
}

// ProcessDueSeries fires every series due on asOf once. A failing series is
// logged and reported and never stops the rest of the sweep.
func (s *schedulerService) ProcessDueSeries(ctx context.Context, asOf time.Time) (*dto.SweepResponse, error) {
	today := types.ToDate(asOf)

	span, ctx := s.Sentry.StartSweepSpan(ctx, "recurring_invoice.generate")
	defer sentry.FinishSpan(span)

	due, err := s.RecurringInvoiceRepo.ListDue(ctx, today)
	if err != nil {
		s.Logger.Errorw("failed to list due recurring invoices", "as_of", types.FormatDate(today), "error", err)
		return nil, err
	}

	s.Logger.Infow("starting recurring invoice generation sweep",
		"as_of", types.FormatDate(today),
		"due_count", len(due),
	)

	tally := newSweepTally(today, len(due))
	p := pool.New().WithMaxGoroutines(s.maxConcurrency())
	for _, series := range due {
		seriesID := series.ID
		p.Go(func() {
			s.fireIsolated(ctx, seriesID, today, tally)
		})
	}
	p.Wait()

	s.Logger.Infow("completed recurring invoice generation sweep",
		"as_of", tally.resp.AsOf,
		"total", tally.resp.Total,
		"succeeded", tally.resp.Succeeded,
		"skipped", tally.resp.Skipped,
		"failed", tally.resp.Failed,
	)
	return tally.resp, nil
}

func (s *schedulerService) fireIsolated(ctx context.Context, seriesID string, today time.Time, tally *sweepTally) {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		_, err = s.recurringInvoices.Fire(ctx, seriesID, today)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		err = ierr.WithError(recovered.AsError()).
			WithHint("Recurring invoice generation panicked").
			Mark(ierr.ErrSystem)
	}

	switch {
	case err == nil:
		tally.succeeded()
	case ierr.IsNotDue(err):
		// another replica got there first, or the series changed since listing
		s.Logger.Debugw("recurring invoice no longer due", "series_id", seriesID)
		tally.skipped()
	default:
		s.Logger.Errorw("failed to generate recurring invoice",
			"series_id", seriesID,
			"as_of", types.FormatDate(today),
			"error", err,
		)
		s.Sentry.CaptureExceptionWithTags(err, map[string]string{
			"series_id": seriesID,
			"sweep":     "generate",
		})
		tally.failed(seriesID, err)
	}
}

// ProcessReminders sends one reminder per series and upcoming generation
// date once the reminder window opens.
func (s *schedulerService) ProcessReminders(ctx context.Context, asOf time.Time) (*dto.SweepResponse, error) {
	today := types.ToDate(asOf)

	span, ctx := s.Sentry.StartSweepSpan(ctx, "recurring_invoice.remind")
	defer sentry.FinishSpan(span)

	candidates, err := s.listActiveSeries(ctx)
	if err != nil {
		s.Logger.Errorw("failed to list active recurring invoices", "error", err)
		return nil, err
	}

	tally := newSweepTally(today, 0)
	for _, series := range candidates {
		if !series.NotificationDue(today) {
			continue
		}
		tally.resp.Total++

		if err := s.remind(ctx, series, today); err != nil {
			if ierr.IsAlreadyExists(err) {
				tally.skipped()
				continue
			}
			s.Logger.Errorw("failed to send recurring invoice reminder",
				"series_id", series.ID,
				"error", err,
			)
			s.Sentry.CaptureExceptionWithTags(err, map[string]string{
				"series_id": series.ID,
				"sweep":     "remind",
			})
			tally.failed(series.ID, err)
			continue
		}
		tally.succeeded()
	}

	s.Logger.Infow("completed recurring invoice reminder sweep",
		"as_of", tally.resp.AsOf,
		"total", tally.resp.Total,
		"sent", tally.resp.Succeeded,
		"skipped", tally.resp.Skipped,
		"failed", tally.resp.Failed,
	)
	return tally.resp, nil
}

func (s *schedulerService) remind(ctx context.Context, series *recurringinvoice.Series, today time.Time) error {
	key := s.IdempotencyGenerator.ReminderKey(series.ID, series.NextGenerationDate)
	cacheKey := cache.GenerateKey(cache.PrefixReminder, key)

	if !s.Cache.Add(ctx, cacheKey, types.FormatDate(today), reminderDedupTTL) {
		return ierr.NewErrorf("reminder %s already sent", key).
			WithHint("A reminder was already sent for this generation date").
			Mark(ierr.ErrAlreadyExists)
	}

	err := s.ReminderSender.SendReminder(ctx, &invoicing.Reminder{
		IdempotencyKey:     key,
		SeriesID:           series.ID,
		ClientID:           series.ClientID,
		RecipientEmail:     series.RecipientEmail,
		NextGenerationDate: series.NextGenerationDate,
		DaysBefore:         series.NotificationDaysBefore,
	})
	if err != nil {
		// release the key so the next sweep can try again
		s.Cache.Delete(ctx, cacheKey)
		return err
	}

	s.Logger.Infow("sent recurring invoice reminder",
		"series_id", series.ID,
		"next_generation_date", types.FormatDate(series.NextGenerationDate),
	)
	return nil
}

func (s *schedulerService) listActiveSeries(ctx context.Context) ([]*recurringinvoice.Series, error) {
	var all []*recurringinvoice.Series
	for offset := 0; ; offset += reminderPageSize {
		filter := &types.RecurringInvoiceFilter{
			QueryFilter: &types.QueryFilter{
				Limit:  lo.ToPtr(reminderPageSize),
				Offset: lo.ToPtr(offset),
				Order:  lo.ToPtr(types.OrderAsc),
			},
			Statuses: []types.RecurringSeriesStatus{types.RecurringSeriesStatusActive},
		}
		page, err := s.RecurringInvoiceRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < reminderPageSize {
			return all, nil
		}
	}
}

func (s *schedulerService) maxConcurrency() int {
	if s.Config == nil || s.Config.Scheduler.MaxConcurrency < 1 {
		return 1
	}
	return s.Config.Scheduler.MaxConcurrency
}
