package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flexprice/recurring/internal/cache"
	"github.com/flexprice/recurring/internal/config"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProduct_CachesHits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/products/prod_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"prod_1","name":"Hosting","unit_price":"19.99","currency":"USD"}`))
	}))
	defer srv.Close()

	cfg := config.GetDefaultConfig()
	cfg.Catalog.BaseURL = srv.URL
	cfg.Catalog.CacheTTL = time.Minute
	log := logger.NewNoopLogger()
	c := NewClient(cfg, cache.NewInMemoryCache(cfg, log), log)

	for i := 0; i < 3; i++ {
		p, err := c.GetProduct(context.Background(), "prod_1")
		require.NoError(t, err)
		assert.Equal(t, "19.99", p.UnitPrice.String())
		assert.Equal(t, "USD", p.Currency)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err := c.GetProduct(context.Background(), "missing")
	assert.True(t, ierr.IsNotFound(err))
}

func TestTransportConfigUsesCatalogSettings(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Invoicing.Timeout = 30 * time.Second
	cfg.Invoicing.RetryMax = 5
	cfg.Invoicing.RateLimit = 1
	cfg.Catalog.Timeout = 2 * time.Second
	cfg.Catalog.RetryMax = 1
	cfg.Catalog.RateLimit = 50

	got := transportConfig(cfg.Catalog)
	assert.Equal(t, 2*time.Second, got.Timeout)
	assert.Equal(t, 1, got.RetryMax)
	assert.Equal(t, 50.0, got.RateLimit)
}
