package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	"github.com/flexprice/recurring/internal/types"
	"github.com/lib/pq"
)

const seriesColumns = `id, client_id, name, frequency, start_date, end_date, day_of_month,
	next_generation_date, series_status, auto_send, recipient_email, notification_days_before,
	total_invoices_generated, items, version, status, created_at, updated_at, created_by, updated_by`

type recurringInvoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRecurringInvoiceRepository(db *postgres.DB, logger *logger.Logger) recurringinvoice.Repository {
	return &recurringInvoiceRepository{db: db, logger: logger}
}

func (r *recurringInvoiceRepository) Create(ctx context.Context, s *recurringinvoice.Series) error {
	query := `
		INSERT INTO recurring_invoices (
			id, client_id, name, frequency, start_date, end_date, day_of_month,
			next_generation_date, series_status, auto_send, recipient_email, notification_days_before,
			total_invoices_generated, items, version, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :client_id, :name, :frequency, :start_date, :end_date, :day_of_month,
			:next_generation_date, :series_status, :auto_send, :recipient_email, :notification_days_before,
			:total_invoices_generated, :items, :version, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating recurring invoice",
		"series_id", s.ID,
		"client_id", s.ClientID,
	)

	if s.Version == 0 {
		s.Version = 1
	}

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A recurring invoice with this id already exists").
				WithReportableDetails(map[string]any{"series_id": s.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create recurring invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *recurringInvoiceRepository) Get(ctx context.Context, id string) (*recurringinvoice.Series, error) {
	var s recurringinvoice.Series
	query := fmt.Sprintf(`SELECT %s FROM recurring_invoices WHERE id = $1 AND status = $2`, seriesColumns)

	err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, id, types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("recurring invoice %s not found", id).
				WithHint("Recurring invoice not found").
				WithReportableDetails(map[string]any{"series_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get recurring invoice").
			Mark(ierr.ErrDatabase)
	}

	normalizeDates(&s)
	return &s, nil
}

// Update writes the series only when the stored version still matches
// s.Version, then bumps the version on s.
func (r *recurringInvoiceRepository) Update(ctx context.Context, s *recurringinvoice.Series) error {
	query := `
		UPDATE recurring_invoices SET
			name = :name,
			frequency = :frequency,
			start_date = :start_date,
			end_date = :end_date,
			day_of_month = :day_of_month,
			next_generation_date = :next_generation_date,
			series_status = :series_status,
			auto_send = :auto_send,
			recipient_email = :recipient_email,
			notification_days_before = :notification_days_before,
			total_invoices_generated = :total_invoices_generated,
			items = :items,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND version = :version AND status = 'published'`

	r.logger.Debugw("updating recurring invoice",
		"series_id", s.ID,
		"version", s.Version,
		"series_status", s.SeriesStatus,
	)

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update recurring invoice").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return r.missedUpdate(ctx, s)
	}

	s.Version++
	return nil
}

// missedUpdate tells a stale version apart from a missing row
func (r *recurringInvoiceRepository) missedUpdate(ctx context.Context, s *recurringinvoice.Series) error {
	current, err := r.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	return ierr.NewErrorf("recurring invoice %s was modified concurrently", s.ID).
		WithHint("The recurring invoice was modified by another request, please retry").
		WithReportableDetails(map[string]any{
			"series_id":        s.ID,
			"expected_version": s.Version,
			"current_version":  current.Version,
		}).
		Mark(ierr.ErrVersionConflict)
}

func (r *recurringInvoiceRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE recurring_invoices SET
			status = :status,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND status = 'published'`

	r.logger.Debugw("deleting recurring invoice", "series_id", id)

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         id,
		"status":     types.StatusDeleted,
		"updated_by": types.GetUserID(ctx),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete recurring invoice").
			Mark(ierr.ErrDatabase)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ierr.NewErrorf("recurring invoice %s not found", id).
			WithHint("Recurring invoice not found").
			WithReportableDetails(map[string]any{"series_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *recurringInvoiceRepository) List(ctx context.Context, filter *types.RecurringInvoiceFilter) ([]*recurringinvoice.Series, error) {
	if filter == nil {
		filter = types.NewRecurringInvoiceFilter()
	}

	where, args := buildSeriesWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM recurring_invoices WHERE %s ORDER BY created_at %s, id %s`,
		seriesColumns, where, orderDirection(filter), orderDirection(filter))

	if !filter.IsUnlimited() {
		args = append(args, filter.GetLimit(), filter.GetOffset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var out []*recurringinvoice.Series
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &out, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list recurring invoices").
			Mark(ierr.ErrDatabase)
	}
	for _, s := range out {
		normalizeDates(s)
	}
	return out, nil
}

func (r *recurringInvoiceRepository) Count(ctx context.Context, filter *types.RecurringInvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewRecurringInvoiceFilter()
	}

	where, args := buildSeriesWhere(filter)
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM recurring_invoices WHERE %s`, where)
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count recurring invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

// ListDue returns active series whose next generation date is on or before asOf
func (r *recurringInvoiceRepository) ListDue(ctx context.Context, asOf time.Time) ([]*recurringinvoice.Series, error) {
	filter := &types.RecurringInvoiceFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		DueAsOf:     &asOf,
	}
	return r.List(ctx, filter)
}

func buildSeriesWhere(filter *types.RecurringInvoiceFilter) (string, []interface{}) {
	conds := []string{"status = $1"}
	args := []interface{}{types.StatusPublished}

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, pq.Array(statuses))
		conds = append(conds, fmt.Sprintf("series_status = ANY($%d)", len(args)))
	}
	if filter.DueAsOf != nil {
		args = append(args, types.RecurringSeriesStatusActive, types.ToDate(*filter.DueAsOf))
		conds = append(conds,
			fmt.Sprintf("series_status = $%d", len(args)-1),
			fmt.Sprintf("next_generation_date <= $%d", len(args)),
		)
	}

	return strings.Join(conds, " AND "), args
}

func orderDirection(filter *types.RecurringInvoiceFilter) string {
	if filter.GetOrder() == types.OrderAsc {
		return "ASC"
	}
	return "DESC"
}

// DATE columns come back in the driver's location; schedule code compares
// UTC midnights.
func normalizeDates(s *recurringinvoice.Series) {
	s.StartDate = types.ToDate(s.StartDate)
	s.NextGenerationDate = types.ToDate(s.NextGenerationDate)
	if s.EndDate != nil {
		end := types.ToDate(*s.EndDate)
		s.EndDate = &end
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
