package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
	"github.com/samber/lo"
)

var _ recurringinvoice.Repository = (*InMemoryRecurringInvoiceStore)(nil)

// InMemoryRecurringInvoiceStore implements recurringinvoice.Repository with
// the same compare-and-swap semantics as the postgres repository
type InMemoryRecurringInvoiceStore struct {
	*InMemoryStore[*recurringinvoice.Series]

	mu sync.Mutex
	// pendingConflicts forces the next N updates to fail with a version conflict
	pendingConflicts int
	updateCalls      int
}

func NewInMemoryRecurringInvoiceStore() *InMemoryRecurringInvoiceStore {
	return &InMemoryRecurringInvoiceStore{
		InMemoryStore: NewInMemoryStore[*recurringinvoice.Series](),
	}
}

func (s *InMemoryRecurringInvoiceStore) Create(ctx context.Context, series *recurringinvoice.Series) error {
	if series.Version == 0 {
		series.Version = 1
	}
	return s.InMemoryStore.Create(ctx, series.ID, series.Copy())
}

func (s *InMemoryRecurringInvoiceStore) Get(ctx context.Context, id string) (*recurringinvoice.Series, error) {
	series, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if series.Status == types.StatusDeleted {
		return nil, ierr.NewErrorf("recurring invoice %s not found", id).
			WithHint("Recurring invoice not found").
			Mark(ierr.ErrNotFound)
	}
	return series.Copy(), nil
}

func (s *InMemoryRecurringInvoiceStore) Update(ctx context.Context, series *recurringinvoice.Series) error {
	s.mu.Lock()
	s.updateCalls++
	if s.pendingConflicts > 0 {
		s.pendingConflicts--
		s.mu.Unlock()
		return newConflictError(series)
	}
	s.mu.Unlock()

	err := s.InMemoryStore.Mutate(ctx, series.ID, func(current *recurringinvoice.Series) (*recurringinvoice.Series, error) {
		if current.Status == types.StatusDeleted {
			return nil, ierr.NewErrorf("recurring invoice %s not found", series.ID).
				Mark(ierr.ErrNotFound)
		}
		if current.Version != series.Version {
			return nil, newConflictError(series)
		}
		next := series.Copy()
		next.Version = current.Version + 1
		return next, nil
	})
	if err != nil {
		return err
	}
	series.Version++
	return nil
}

func (s *InMemoryRecurringInvoiceStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Mutate(ctx, id, func(current *recurringinvoice.Series) (*recurringinvoice.Series, error) {
		if current.Status == types.StatusDeleted {
			return nil, ierr.NewErrorf("recurring invoice %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		next := current.Copy()
		next.Status = types.StatusDeleted
		next.UpdatedAt = time.Now().UTC()
		next.Version++
		return next, nil
	})
}

func (s *InMemoryRecurringInvoiceStore) List(ctx context.Context, filter *types.RecurringInvoiceFilter) ([]*recurringinvoice.Series, error) {
	if filter == nil {
		filter = types.NewRecurringInvoiceFilter()
	}
	items, err := s.InMemoryStore.List(ctx, filter, seriesFilterFn, seriesSortFn(filter.GetOrder()))
	if err != nil {
		return nil, err
	}
	return copySeries(items), nil
}

func (s *InMemoryRecurringInvoiceStore) Count(ctx context.Context, filter *types.RecurringInvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewRecurringInvoiceFilter()
	}
	return s.InMemoryStore.Count(ctx, filter, seriesFilterFn)
}

func (s *InMemoryRecurringInvoiceStore) ListDue(ctx context.Context, asOf time.Time) ([]*recurringinvoice.Series, error) {
	date := types.ToDate(asOf)
	filter := &types.RecurringInvoiceFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		DueAsOf:     &date,
	}
	items, err := s.InMemoryStore.List(ctx, filter, seriesFilterFn, seriesSortFn(types.OrderAsc))
	if err != nil {
		return nil, err
	}
	return copySeries(items), nil
}

// InjectConflicts makes the next n updates fail with a version conflict
func (s *InMemoryRecurringInvoiceStore) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingConflicts = n
}

// UpdateCalls returns how many updates were attempted
func (s *InMemoryRecurringInvoiceStore) UpdateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

// Clear resets the store and any injected conflicts
func (s *InMemoryRecurringInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingConflicts = 0
	s.updateCalls = 0
}

func seriesFilterFn(ctx context.Context, series *recurringinvoice.Series, filter interface{}) bool {
	if series.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.RecurringInvoiceFilter)
	if !ok || f == nil {
		return true
	}

	if f.ClientID != "" && series.ClientID != f.ClientID {
		return false
	}
	if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, series.SeriesStatus) {
		return false
	}
	if f.DueAsOf != nil {
		if series.SeriesStatus != types.RecurringSeriesStatusActive {
			return false
		}
		if series.NextGenerationDate.After(*f.DueAsOf) {
			return false
		}
	}
	return true
}

func seriesSortFn(order string) SortFunc[*recurringinvoice.Series] {
	return func(i, j *recurringinvoice.Series) bool {
		if order == types.OrderAsc {
			return i.CreatedAt.Before(j.CreatedAt)
		}
		return i.CreatedAt.After(j.CreatedAt)
	}
}

func copySeries(items []*recurringinvoice.Series) []*recurringinvoice.Series {
	return lo.Map(items, func(s *recurringinvoice.Series, _ int) *recurringinvoice.Series {
		return s.Copy()
	})
}

func newConflictError(series *recurringinvoice.Series) error {
	return ierr.NewErrorf("recurring invoice %s was modified concurrently", series.ID).
		WithHint("The recurring invoice was modified by another request, please retry").
		WithReportableDetails(map[string]any{
			"series_id": series.ID,
			"version":   series.Version,
		}).
		Mark(ierr.ErrVersionConflict)
}
