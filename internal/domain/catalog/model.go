package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the catalog view of a billable product
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
}

// Client looks products up in the product catalog.
// GetProduct returns an ierr.ErrNotFound error for unknown products.
type Client interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}
