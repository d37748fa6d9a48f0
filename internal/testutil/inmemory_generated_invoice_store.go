package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
)

var _ recurringinvoice.GeneratedInvoiceRepository = (*InMemoryGeneratedInvoiceStore)(nil)

// InMemoryGeneratedInvoiceStore keys records on (series, generation date)
// like the unique index in postgres
type InMemoryGeneratedInvoiceStore struct {
	*InMemoryStore[*recurringinvoice.GeneratedInvoice]
}

func NewInMemoryGeneratedInvoiceStore() *InMemoryGeneratedInvoiceStore {
	return &InMemoryGeneratedInvoiceStore{
		InMemoryStore: NewInMemoryStore[*recurringinvoice.GeneratedInvoice](),
	}
}

func generationKey(seriesID string, date time.Time) string {
	return fmt.Sprintf("%s:%s", seriesID, types.FormatDate(date))
}

func (s *InMemoryGeneratedInvoiceStore) Create(ctx context.Context, record *recurringinvoice.GeneratedInvoice) error {
	err := s.InMemoryStore.Create(ctx, generationKey(record.SeriesID, record.GenerationDate), record)
	if err != nil && ierr.IsAlreadyExists(err) {
		return ierr.WithError(err).
			WithHintf("Invoice for %s was already recorded", types.FormatDate(record.GenerationDate)).
			Mark(ierr.ErrAlreadyExists)
	}
	return err
}

func (s *InMemoryGeneratedInvoiceStore) ListBySeries(ctx context.Context, seriesID string) ([]*recurringinvoice.GeneratedInvoice, error) {
	return s.InMemoryStore.List(ctx, seriesID,
		func(_ context.Context, r *recurringinvoice.GeneratedInvoice, filter interface{}) bool {
			return r.SeriesID == filter.(string)
		},
		func(i, j *recurringinvoice.GeneratedInvoice) bool {
			return i.SequenceNumber < j.SequenceNumber
		},
	)
}
