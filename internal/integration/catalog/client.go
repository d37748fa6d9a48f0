package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flexprice/recurring/internal/cache"
	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/domain/catalog"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/httpclient"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
}

// Client reads products from the catalog API, caching hits for cache_ttl
type Client struct {
	baseURL    string
	apiKey     string
	ttl        time.Duration
	httpClient httpclient.Client
	cache      cache.Cache
	logger     *logger.Logger
}

// NewClient creates a new catalog API client
func NewClient(cfg *config.Configuration, c cache.Cache, log *logger.Logger) catalog.Client {
	return NewClientWithHTTP(cfg, httpclient.NewDefaultClient(transportConfig(cfg.Catalog), log), c, log)
}

func transportConfig(cfg config.CatalogConfig) httpclient.ClientConfig {
	return httpclient.ClientConfig{
		Timeout:   cfg.Timeout,
		RetryMax:  cfg.RetryMax,
		RateLimit: cfg.RateLimit,
	}
}

// NewClientWithHTTP creates a client on a caller supplied transport
func NewClientWithHTTP(cfg *config.Configuration, hc httpclient.Client, c cache.Cache, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.Catalog.BaseURL, "/"),
		apiKey:     cfg.Catalog.APIKey,
		ttl:        cfg.Catalog.CacheTTL,
		httpClient: hc,
		cache:      c,
		logger:     log,
	}
}

// GetProduct returns the catalog product with the given id
func (c *Client) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	key := cache.GenerateKey(cache.PrefixProduct, id)
	if cached, ok := c.cache.Get(ctx, key); ok {
		if p, ok := cached.(*catalog.Product); ok {
			return p, nil
		}
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/products/" + url.PathEscape(id),
		Headers: map[string]string{"Authorization": "Bearer " + c.apiKey},
	})
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHintf("Product %s was not found in the catalog", id).
				WithReportableDetails(map[string]any{"product_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	var out productResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The catalog service returned an unexpected response").
			Mark(ierr.ErrHTTPClient)
	}

	product := &catalog.Product{
		ID:        out.ID,
		Name:      out.Name,
		UnitPrice: out.UnitPrice,
		Currency:  out.Currency,
	}
	c.cache.Set(ctx, key, product, c.ttl)
	return product, nil
}
