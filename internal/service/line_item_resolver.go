package service

import (
	"context"

	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
)

// LineItemResolver expands a series' item templates into priced invoice lines
type LineItemResolver interface {
	Materialize(ctx context.Context, series *recurringinvoice.Series) ([]invoicing.LineItem, error)
}

type lineItemResolver struct {
	ServiceParams
	policy types.PricePolicy
}

func NewLineItemResolver(params ServiceParams) LineItemResolver {
	policy := params.Config.Recurring.PricePolicy
	if policy == "" {
		policy = types.PricePolicySnapshot
	}
	return &lineItemResolver{ServiceParams: params, policy: policy}
}

// Materialize prices every template. Catalog-bound items take their name and
// currency from the catalog; the unit price comes from the template under the
// snapshot policy and from the catalog under the live policy. Amounts are
// quantity × unit price with no rounding.
func (r *lineItemResolver) Materialize(ctx context.Context, series *recurringinvoice.Series) ([]invoicing.LineItem, error) {
	if err := series.Items.Validate(); err != nil {
		return nil, err
	}

	items := make([]invoicing.LineItem, 0, len(series.Items))
	for i, tmpl := range series.Items {
		item := invoicing.LineItem{
			ProductID:   tmpl.ProductID,
			Description: tmpl.Description,
			Quantity:    tmpl.Quantity,
			UnitPrice:   tmpl.UnitPrice,
		}

		if tmpl.ProductID != "" {
			product, err := r.CatalogClient.GetProduct(ctx, tmpl.ProductID)
			if err != nil {
				r.Logger.Errorw("catalog lookup failed while materializing",
					"series_id", series.ID,
					"product_id", tmpl.ProductID,
					"item_index", i,
					"error", err,
				)
				return nil, err
			}
			if item.Description == "" {
				item.Description = product.Name
			}
			item.Currency = product.Currency
			if r.policy == types.PricePolicyLive {
				item.UnitPrice = product.UnitPrice
			}
		}

		if item.UnitPrice.IsNegative() {
			return nil, ierr.NewErrorf("item %d resolved to a negative price", i).
				WithHint("Unit price cannot be negative").
				WithReportableDetails(map[string]any{
					"series_id":  series.ID,
					"product_id": tmpl.ProductID,
					"unit_price": item.UnitPrice.String(),
				}).
				Mark(ierr.ErrValidation)
		}

		item.Amount = item.Quantity.Mul(item.UnitPrice)
		items = append(items, item)
	}

	return items, nil
}
