package recurringinvoice

import (
	"context"
	"time"

	"github.com/flexprice/recurring/internal/types"
)

// Repository persists series. Update is a compare-and-swap on Version: it
// fails with ierr.ErrVersionConflict when the stored version differs and
// increments Version on success.
type Repository interface {
	Create(ctx context.Context, series *Series) error
	Get(ctx context.Context, id string) (*Series, error)
	Update(ctx context.Context, series *Series) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *types.RecurringInvoiceFilter) ([]*Series, error)
	Count(ctx context.Context, filter *types.RecurringInvoiceFilter) (int, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*Series, error)
}

// GeneratedInvoiceRepository stores the audit trail of generated invoices.
// Create fails with ierr.ErrAlreadyExists for a repeated (series, generation date).
type GeneratedInvoiceRepository interface {
	Create(ctx context.Context, record *GeneratedInvoice) error
	ListBySeries(ctx context.Context, seriesID string) ([]*GeneratedInvoice, error)
}
