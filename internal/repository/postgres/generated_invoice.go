package postgres

import (
	"context"

	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	"github.com/flexprice/recurring/internal/types"
)

type generatedInvoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewGeneratedInvoiceRepository(db *postgres.DB, logger *logger.Logger) recurringinvoice.GeneratedInvoiceRepository {
	return &generatedInvoiceRepository{db: db, logger: logger}
}

func (r *generatedInvoiceRepository) Create(ctx context.Context, record *recurringinvoice.GeneratedInvoice) error {
	query := `
		INSERT INTO recurring_invoice_generations (
			id, series_id, invoice_id, generation_date, sequence_number, created_at
		) VALUES (
			:id, :series_id, :invoice_id, :generation_date, :sequence_number, :created_at
		)`

	r.logger.Debugw("recording generated invoice",
		"series_id", record.SeriesID,
		"invoice_id", record.InvoiceID,
		"generation_date", types.FormatDate(record.GenerationDate),
	)

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("This generation was already recorded").
				WithReportableDetails(map[string]any{
					"series_id":       record.SeriesID,
					"generation_date": types.FormatDate(record.GenerationDate),
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record generated invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *generatedInvoiceRepository) ListBySeries(ctx context.Context, seriesID string) ([]*recurringinvoice.GeneratedInvoice, error) {
	query := `
		SELECT id, series_id, invoice_id, generation_date, sequence_number, created_at
		FROM recurring_invoice_generations
		WHERE series_id = $1
		ORDER BY sequence_number ASC`

	var out []*recurringinvoice.GeneratedInvoice
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &out, query, seriesID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list generated invoices").
			Mark(ierr.ErrDatabase)
	}
	for _, rec := range out {
		rec.GenerationDate = types.ToDate(rec.GenerationDate)
	}
	return out, nil
}
