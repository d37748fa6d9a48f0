package invoicing

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/httpclient"
	"github.com/flexprice/recurring/internal/logger"
)

// Client creates invoices through the invoicing API. The generation
// idempotency key travels in the Idempotency-Key header so a retried call
// returns the invoice created the first time.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpclient.Client
	logger     *logger.Logger
}

// NewClient creates a new invoicing API client
func NewClient(cfg *config.Configuration, log *logger.Logger) invoicing.Creator {
	return NewClientWithHTTP(cfg, httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout:   cfg.Invoicing.Timeout,
		RetryMax:  cfg.Invoicing.RetryMax,
		RateLimit: cfg.Invoicing.RateLimit,
	}, log), log)
}

// NewClientWithHTTP creates a client on a caller supplied transport
func NewClientWithHTTP(cfg *config.Configuration, hc httpclient.Client, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.Invoicing.BaseURL, "/"),
		apiKey:     cfg.Invoicing.APIKey,
		httpClient: hc,
		logger:     log,
	}
}

// CreateInvoice posts one invoice
func (c *Client) CreateInvoice(ctx context.Context, req *invoicing.CreateInvoiceRequest) (*invoicing.CreateInvoiceResponse, error) {
	if req.IdempotencyKey == "" {
		return nil, ierr.NewError("idempotency key is required").
			WithHint("Invoice creation requires an idempotency key").
			Mark(ierr.ErrValidation)
	}

	body, err := json.Marshal(toPayload(req))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode invoice request").
			Mark(ierr.ErrSystem)
	}

	c.logger.Debugw("creating invoice",
		"series_id", req.SeriesID,
		"client_id", req.ClientID,
		"idempotency_key", req.IdempotencyKey,
	)

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/invoices",
		Headers: map[string]string{
			"Authorization":   "Bearer " + c.apiKey,
			"Idempotency-Key": req.IdempotencyKey,
		},
		Body: body,
	})
	if err != nil {
		c.logger.Errorw("invoice creation failed",
			"series_id", req.SeriesID,
			"idempotency_key", req.IdempotencyKey,
			"error", err,
		)
		return nil, err
	}

	var out invoiceResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.ID == "" {
		return nil, ierr.NewError("invalid invoice response").
			WithHint("The invoicing service returned an unexpected response").
			WithReportableDetails(map[string]any{"status_code": resp.StatusCode}).
			Mark(ierr.ErrHTTPClient)
	}

	return &invoicing.CreateInvoiceResponse{InvoiceID: out.ID}, nil
}
