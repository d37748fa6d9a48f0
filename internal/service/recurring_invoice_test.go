package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/recurring/internal/api/dto"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/testutil"
	"github.com/flexprice/recurring/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RecurringInvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RecurringInvoiceService
	params  ServiceParams
}

func TestRecurringInvoiceService(t *testing.T) {
	suite.Run(t, new(RecurringInvoiceServiceSuite))
}

func (s *RecurringInvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewRecurringInvoiceService(s.params)
}

func newTestServiceParams(b *testutil.BaseServiceTestSuite) ServiceParams {
	stores := b.GetStores()
	collaborators := b.GetCollaborators()
	return NewServiceParams(
		b.GetLogger(),
		b.GetConfig(),
		b.GetDB(),
		b.GetCache(),
		b.GetSentry(),
		stores.RecurringInvoiceRepo,
		stores.GeneratedInvoiceRepo,
		collaborators.Catalog,
		collaborators.InvoiceCreator,
		collaborators.ReminderSender,
		b.GetWebhookPublisher(),
	)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validCreateRequest() dto.CreateRecurringInvoiceRequest {
	return dto.CreateRecurringInvoiceRequest{
		ClientID:   "client_1",
		Name:       "Monthly retainer",
		Frequency:  types.RecurringFrequencyMonthly,
		StartDate:  "2024-01-31",
		DayOfMonth: 31,
		Items: []dto.ItemTemplateRequest{
			{
				Description: "Service",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("50.00"),
			},
		},
	}
}

func (s *RecurringInvoiceServiceSuite) create(mutate func(*dto.CreateRecurringInvoiceRequest)) *dto.RecurringInvoiceResponse {
	req := validCreateRequest()
	if mutate != nil {
		mutate(&req)
	}
	resp, err := s.service.CreateRecurringInvoice(s.GetContext(), req)
	s.Require().NoError(err)
	return resp
}

func (s *RecurringInvoiceServiceSuite) TestCreateRecurringInvoice() {
	testCases := []struct {
		name       string
		mutate     func(*dto.CreateRecurringInvoiceRequest)
		wantErr    bool
		wantNext   string
		errorCheck func(error) bool
	}{
		{
			name:     "valid_series_starts_on_start_date",
			wantNext: "2024-01-31",
		},
		{
			name: "day_already_passed_rolls_to_next_month",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.StartDate = "2024-03-20"
				r.DayOfMonth = 15
			},
			wantNext: "2024-04-15",
		},
		{
			name: "day_31_clamped_in_short_start_month",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.StartDate = "2023-02-10"
			},
			wantNext: "2023-02-28",
		},
		{
			name:       "missing_client",
			mutate:     func(r *dto.CreateRecurringInvoiceRequest) { r.ClientID = "" },
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name:       "no_items",
			mutate:     func(r *dto.CreateRecurringInvoiceRequest) { r.Items = nil },
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name:       "day_of_month_out_of_range",
			mutate:     func(r *dto.CreateRecurringInvoiceRequest) { r.DayOfMonth = 32 },
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name:       "unknown_frequency",
			mutate:     func(r *dto.CreateRecurringInvoiceRequest) { r.Frequency = "weekly" },
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name: "end_before_first_generation",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.StartDate = "2024-01-15"
				r.DayOfMonth = 10
				r.EndDate = lo.ToPtr("2024-01-20")
			},
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name: "end_on_first_generation",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.StartDate = "2024-01-15"
				r.DayOfMonth = 10
				r.EndDate = lo.ToPtr("2024-02-10")
			},
			wantNext: "2024-02-10",
		},
		{
			name: "end_before_start",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.EndDate = lo.ToPtr("2023-12-31")
			},
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name:       "auto_send_without_recipient",
			mutate:     func(r *dto.CreateRecurringInvoiceRequest) { r.AutoSend = true },
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name: "zero_quantity",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.Items[0].Quantity = decimal.Zero
			},
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name: "negative_price",
			mutate: func(r *dto.CreateRecurringInvoiceRequest) {
				r.Items[0].UnitPrice = decimal.NewFromInt(-1)
			},
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
		{
			name:       "malformed_start_date",
			mutate:     func(r *dto.CreateRecurringInvoiceRequest) { r.StartDate = "31/01/2024" },
			wantErr:    true,
			errorCheck: ierr.IsValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			req := validCreateRequest()
			if tc.mutate != nil {
				tc.mutate(&req)
			}

			resp, err := s.service.CreateRecurringInvoice(s.GetContext(), req)
			if tc.wantErr {
				s.Error(err)
				s.True(tc.errorCheck(err), "unexpected error: %v", err)
				return
			}

			s.NoError(err)
			s.Equal(tc.wantNext, resp.NextGenerationDate)
			s.Equal(types.RecurringSeriesStatusActive, resp.Status)
			s.Equal(0, resp.TotalInvoicesGenerated)
		})
	}
}

func (s *RecurringInvoiceServiceSuite) TestGetAndDelete() {
	created := s.create(nil)

	got, err := s.service.GetRecurringInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, got.ID)

	s.NoError(s.service.DeleteRecurringInvoice(s.GetContext(), created.ID))

	_, err = s.service.GetRecurringInvoice(s.GetContext(), created.ID)
	s.True(ierr.IsNotFound(err))

	err = s.service.DeleteRecurringInvoice(s.GetContext(), created.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *RecurringInvoiceServiceSuite) TestListRecurringInvoices() {
	s.create(nil)
	s.create(func(r *dto.CreateRecurringInvoiceRequest) { r.ClientID = "client_2" })
	paused := s.create(func(r *dto.CreateRecurringInvoiceRequest) { r.ClientID = "client_2" })
	_, err := s.service.SetStatus(s.GetContext(), paused.ID, types.RecurringSeriesStatusPaused)
	s.Require().NoError(err)

	all, err := s.service.ListRecurringInvoices(s.GetContext(), nil)
	s.NoError(err)
	s.Len(all.Items, 3)
	s.Equal(3, all.Pagination.Total)
	s.False(all.Pagination.HasMore)

	firstPage := types.NewRecurringInvoiceFilter()
	firstPage.Limit = lo.ToPtr(2)
	page, err := s.service.ListRecurringInvoices(s.GetContext(), firstPage)
	s.NoError(err)
	s.Len(page.Items, 2)
	s.Equal(3, page.Pagination.Total)
	s.Equal(0, page.Pagination.Offset)
	s.True(page.Pagination.HasMore)

	filter := types.NewRecurringInvoiceFilter()
	filter.ClientID = "client_2"
	filter.Statuses = []types.RecurringSeriesStatus{types.RecurringSeriesStatusPaused}
	byClient, err := s.service.ListRecurringInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Require().Len(byClient.Items, 1)
	s.Equal(paused.ID, byClient.Items[0].ID)

	bad := types.NewRecurringInvoiceFilter()
	bad.Statuses = []types.RecurringSeriesStatus{"archived"}
	_, err = s.service.ListRecurringInvoices(s.GetContext(), bad)
	s.True(ierr.IsValidation(err))
}

func (s *RecurringInvoiceServiceSuite) TestUpdateBeforeFirstGeneration() {
	created := s.create(nil)

	resp, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
		Name:       lo.ToPtr("Quarterly retainer"),
		Frequency:  lo.ToPtr(types.RecurringFrequencyQuarterly),
		StartDate:  lo.ToPtr("2024-02-01"),
		DayOfMonth: lo.ToPtr(15),
	})
	s.NoError(err)
	s.Equal("Quarterly retainer", resp.Name)
	s.Equal(types.RecurringFrequencyQuarterly, resp.Frequency)
	s.Equal("2024-02-01", resp.StartDate)
	s.Equal("2024-02-15", resp.NextGenerationDate)
	s.Equal(2, resp.Version)
}

func (s *RecurringInvoiceServiceSuite) TestUpdateAfterGeneration() {
	created := s.create(nil)
	_, err := s.service.Fire(s.GetContext(), created.ID, date(2024, 1, 31))
	s.Require().NoError(err)

	s.Run("frequency_is_frozen", func() {
		_, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			Frequency: lo.ToPtr(types.RecurringFrequencyYearly),
		})
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("start_date_is_frozen", func() {
		_, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			StartDate: lo.ToPtr("2024-01-01"),
		})
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("same_frequency_is_accepted", func() {
		_, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			Frequency: lo.ToPtr(types.RecurringFrequencyMonthly),
		})
		s.NoError(err)
	})

	s.Run("day_of_month_retargets_pending_date", func() {
		resp, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			DayOfMonth: lo.ToPtr(10),
		})
		s.NoError(err)
		s.Equal("2024-02-10", resp.NextGenerationDate)
		s.Equal(10, resp.DayOfMonth)
	})

	s.Run("end_date_before_next_generation", func() {
		_, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			EndDate: lo.ToPtr("2024-02-01"),
		})
		s.True(ierr.IsValidation(err))
	})

	s.Run("end_date_set_and_cleared", func() {
		resp, err := s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			EndDate: lo.ToPtr("2024-12-31"),
		})
		s.NoError(err)
		s.Require().NotNil(resp.EndDate)
		s.Equal("2024-12-31", *resp.EndDate)

		resp, err = s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
			ClearEndDate: true,
		})
		s.NoError(err)
		s.Nil(resp.EndDate)
	})
}

func (s *RecurringInvoiceServiceSuite) TestUpdateTerminalSeriesRejected() {
	created := s.create(nil)
	_, err := s.service.SetStatus(s.GetContext(), created.ID, types.RecurringSeriesStatusCancelled)
	s.Require().NoError(err)

	_, err = s.service.UpdateRecurringInvoice(s.GetContext(), created.ID, dto.UpdateRecurringInvoiceRequest{
		Name: lo.ToPtr("renamed"),
	})
	s.True(ierr.IsTerminalState(err))
}

func (s *RecurringInvoiceServiceSuite) TestSetStatus() {
	created := s.create(nil)
	ctx := s.GetContext()

	paused, err := s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusPaused)
	s.NoError(err)
	s.Equal(types.RecurringSeriesStatusPaused, paused.Status)
	s.Equal(2, paused.Version)

	// same status is a no-op and does not bump the version
	again, err := s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusPaused)
	s.NoError(err)
	s.Equal(2, again.Version)

	_, err = s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusCompleted)
	s.True(ierr.IsInvalidOperation(err))

	resumed, err := s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusActive)
	s.NoError(err)
	s.Equal(types.RecurringSeriesStatusActive, resumed.Status)
	s.Equal(created.NextGenerationDate, resumed.NextGenerationDate)

	cancelled, err := s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusCancelled)
	s.NoError(err)
	s.Equal(types.RecurringSeriesStatusCancelled, cancelled.Status)

	for _, target := range []types.RecurringSeriesStatus{
		types.RecurringSeriesStatusActive,
		types.RecurringSeriesStatusPaused,
		types.RecurringSeriesStatusCancelled,
	} {
		_, err = s.service.SetStatus(ctx, created.ID, target)
		s.True(ierr.IsTerminalState(err), "target %s", target)
	}

	s.Contains(s.GetPubSub().EventNames(s.GetConfig().Webhook.Topic), types.WebhookEventRecurringInvoiceCancelled)
}

func (s *RecurringInvoiceServiceSuite) TestSetStatusRetriesOnce() {
	created := s.create(nil)
	repo := s.GetStores().RecurringInvoiceRepo

	repo.InjectConflicts(1)
	resp, err := s.service.SetStatus(s.GetContext(), created.ID, types.RecurringSeriesStatusPaused)
	s.NoError(err)
	s.Equal(types.RecurringSeriesStatusPaused, resp.Status)

	repo.InjectConflicts(2)
	_, err = s.service.SetStatus(s.GetContext(), created.ID, types.RecurringSeriesStatusActive)
	s.True(ierr.IsVersionConflict(err))
}

func (s *RecurringInvoiceServiceSuite) TestFire() {
	created := s.create(func(r *dto.CreateRecurringInvoiceRequest) {
		r.AutoSend = true
		r.RecipientEmail = "billing@example.com"
	})
	ctx := s.GetContext()

	resp, err := s.service.Fire(ctx, created.ID, date(2024, 1, 31))
	s.Require().NoError(err)
	s.Equal("inv_1", resp.InvoiceID)
	s.Equal("2024-01-31", resp.GenerationDate)
	s.Equal("100.00", resp.Total)
	s.Require().Len(resp.LineItems, 1)
	s.Equal("100.00", resp.LineItems[0].Amount)
	s.Equal("2024-02-29", resp.RecurringInvoice.NextGenerationDate)
	s.Equal(1, resp.RecurringInvoice.TotalInvoicesGenerated)

	requests := s.GetCollaborators().InvoiceCreator.Requests()
	s.Require().Len(requests, 1)
	s.True(requests[0].AutoSend)
	s.Equal("billing@example.com", requests[0].RecipientEmail)
	s.Equal(s.params.IdempotencyGenerator.GenerationKey(created.ID, date(2024, 1, 31)), requests[0].IdempotencyKey)

	// firing again on the same day is not due
	_, err = s.service.Fire(ctx, created.ID, date(2024, 1, 31))
	s.True(ierr.IsNotDue(err))

	records, err := s.service.ListGeneratedInvoices(ctx, created.ID)
	s.NoError(err)
	s.Require().Len(records.Items, 1)
	s.Equal("inv_1", records.Items[0].InvoiceID)
	s.Equal(1, records.Items[0].SequenceNumber)

	s.Equal([]string{types.WebhookEventRecurringInvoiceGenerated},
		s.GetPubSub().EventNames(s.GetConfig().Webhook.Topic))
}

func (s *RecurringInvoiceServiceSuite) TestFireDay31Sequence() {
	created := s.create(nil)
	ctx := s.GetContext()

	expected := []struct {
		fireOn time.Time
		next   string
	}{
		{date(2024, 1, 31), "2024-02-29"},
		{date(2024, 2, 29), "2024-03-31"},
		{date(2024, 3, 31), "2024-04-30"},
	}

	for i, step := range expected {
		resp, err := s.service.Fire(ctx, created.ID, step.fireOn)
		s.Require().NoError(err)
		s.Equal(step.next, resp.RecurringInvoice.NextGenerationDate)
		s.Equal(i+1, resp.RecurringInvoice.TotalInvoicesGenerated)
	}
}

func (s *RecurringInvoiceServiceSuite) TestFireCatchesUpOnePeriodPerCall() {
	created := s.create(nil)
	ctx := s.GetContext()
	late := date(2024, 4, 15)

	resp, err := s.service.Fire(ctx, created.ID, late)
	s.Require().NoError(err)
	s.Equal("2024-01-31", resp.GenerationDate)
	s.Equal("2024-02-29", resp.RecurringInvoice.NextGenerationDate)

	resp, err = s.service.Fire(ctx, created.ID, late)
	s.Require().NoError(err)
	s.Equal("2024-02-29", resp.GenerationDate)
}

func (s *RecurringInvoiceServiceSuite) TestFireCompletesAtEndDate() {
	created := s.create(func(r *dto.CreateRecurringInvoiceRequest) {
		r.Frequency = types.RecurringFrequencyYearly
		r.StartDate = "2024-03-01"
		r.DayOfMonth = 1
		r.EndDate = lo.ToPtr("2025-06-01")
	})
	ctx := s.GetContext()

	first, err := s.service.Fire(ctx, created.ID, date(2024, 3, 1))
	s.Require().NoError(err)
	s.Equal(types.RecurringSeriesStatusActive, first.RecurringInvoice.Status)
	s.Equal("2025-03-01", first.RecurringInvoice.NextGenerationDate)

	second, err := s.service.Fire(ctx, created.ID, date(2025, 3, 1))
	s.Require().NoError(err)
	s.Equal(types.RecurringSeriesStatusCompleted, second.RecurringInvoice.Status)
	s.Equal("2025-03-01", second.RecurringInvoice.NextGenerationDate)
	s.Equal(2, second.RecurringInvoice.TotalInvoicesGenerated)

	_, err = s.service.Fire(ctx, created.ID, date(2026, 3, 1))
	s.True(ierr.IsNotDue(err))

	s.Equal([]string{
		types.WebhookEventRecurringInvoiceGenerated,
		types.WebhookEventRecurringInvoiceGenerated,
		types.WebhookEventRecurringInvoiceCompleted,
	}, s.GetPubSub().EventNames(s.GetConfig().Webhook.Topic))
}

func (s *RecurringInvoiceServiceSuite) TestFireNotDue() {
	created := s.create(nil)
	ctx := s.GetContext()

	_, err := s.service.Fire(ctx, created.ID, date(2024, 1, 30))
	s.True(ierr.IsNotDue(err))

	_, err = s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusPaused)
	s.Require().NoError(err)
	_, err = s.service.Fire(ctx, created.ID, date(2024, 2, 15))
	s.True(ierr.IsNotDue(err))

	s.Zero(s.GetCollaborators().InvoiceCreator.Calls())
}

func (s *RecurringInvoiceServiceSuite) TestFireRetriesConflictOnce() {
	created := s.create(nil)
	repo := s.GetStores().RecurringInvoiceRepo
	creator := s.GetCollaborators().InvoiceCreator

	repo.InjectConflicts(1)
	resp, err := s.service.Fire(s.GetContext(), created.ID, date(2024, 1, 31))
	s.Require().NoError(err)
	s.Equal(1, resp.RecurringInvoice.TotalInvoicesGenerated)

	// the replayed cycle reused the idempotency key so only one invoice exists
	s.Equal(2, creator.Calls())
	s.Len(creator.Requests(), 1)
}

func (s *RecurringInvoiceServiceSuite) TestFireSurfacesSecondConflict() {
	created := s.create(nil)
	repo := s.GetStores().RecurringInvoiceRepo

	repo.InjectConflicts(2)
	_, err := s.service.Fire(s.GetContext(), created.ID, date(2024, 1, 31))
	s.True(ierr.IsVersionConflict(err))
	s.Equal(2, repo.UpdateCalls())

	got, err := s.service.GetRecurringInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal("2024-01-31", got.NextGenerationDate)
	s.Equal(0, got.TotalInvoicesGenerated)
}

func (s *RecurringInvoiceServiceSuite) TestFirePausedWhileInvoicingKeepsRecord() {
	ctx := s.GetContext()
	created := s.create(nil)
	creator := s.GetCollaborators().InvoiceCreator

	paused := false
	creator.OnCreate = func(ctx context.Context, req *invoicing.CreateInvoiceRequest) {
		if paused {
			return
		}
		paused = true
		_, err := s.service.SetStatus(ctx, req.SeriesID, types.RecurringSeriesStatusPaused)
		s.Require().NoError(err)
	}

	_, err := s.service.Fire(ctx, created.ID, date(2024, 1, 31))
	s.True(ierr.IsNotDue(err), "unexpected error: %v", err)

	got, err := s.service.GetRecurringInvoice(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(types.RecurringSeriesStatusPaused, got.Status)
	s.Equal(0, got.TotalInvoicesGenerated)
	s.Equal("2024-01-31", got.NextGenerationDate)

	records, err := s.service.ListGeneratedInvoices(ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(records.Items, 1)
	s.Equal("inv_1", records.Items[0].InvoiceID)

	// resuming fires the same date and reuses the invoice
	_, err = s.service.SetStatus(ctx, created.ID, types.RecurringSeriesStatusActive)
	s.Require().NoError(err)
	resp, err := s.service.Fire(ctx, created.ID, date(2024, 1, 31))
	s.Require().NoError(err)
	s.Equal("inv_1", resp.InvoiceID)
	s.Equal(1, resp.RecurringInvoice.TotalInvoicesGenerated)
	s.Len(creator.Requests(), 1)

	records, err = s.service.ListGeneratedInvoices(ctx, created.ID)
	s.Require().NoError(err)
	s.Len(records.Items, 1)
}

func (s *RecurringInvoiceServiceSuite) TestFireInvoicingFailureLeavesSeriesUntouched() {
	created := s.create(nil)
	creator := s.GetCollaborators().InvoiceCreator
	creator.FailFor[created.ID] = ierr.NewError("upstream down").Mark(ierr.ErrHTTPClient)

	_, err := s.service.Fire(s.GetContext(), created.ID, date(2024, 1, 31))
	s.True(ierr.IsHTTPClient(err))

	got, err := s.service.GetRecurringInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal("2024-01-31", got.NextGenerationDate)
	s.Equal(1, got.Version)
}

func (s *RecurringInvoiceServiceSuite) TestListDueRecurringInvoices() {
	due := s.create(nil)
	s.create(func(r *dto.CreateRecurringInvoiceRequest) { r.StartDate = "2024-02-01"; r.DayOfMonth = 5 })
	paused := s.create(nil)
	_, err := s.service.SetStatus(s.GetContext(), paused.ID, types.RecurringSeriesStatusPaused)
	s.Require().NoError(err)

	resp, err := s.service.ListDueRecurringInvoices(s.GetContext(), date(2024, 2, 1))
	s.NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(due.ID, resp.Items[0].ID)
}

func (s *RecurringInvoiceServiceSuite) TestMaterialize() {
	created := s.create(nil)

	resp, err := s.service.Materialize(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal("2024-01-31", resp.GenerationDate)
	s.Equal("100.00", resp.Total)

	// materializing never advances the schedule
	got, err := s.service.GetRecurringInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(0, got.TotalInvoicesGenerated)
}
