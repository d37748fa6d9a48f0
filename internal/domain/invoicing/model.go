package invoicing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a concrete, priced invoice line materialized from a template
type LineItem struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
}

// CreateInvoiceRequest asks the invoicing system for one concrete invoice.
// Repeating a request with the same IdempotencyKey returns the invoice
// created the first time.
type CreateInvoiceRequest struct {
	IdempotencyKey string     `json:"-"`
	ClientID       string     `json:"client_id"`
	SeriesID       string     `json:"recurring_invoice_id"`
	GenerationDate time.Time  `json:"generation_date"`
	LineItems      []LineItem `json:"line_items"`
	Total          string     `json:"total"`
	AutoSend       bool       `json:"auto_send"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
}

// CreateInvoiceResponse identifies the created invoice
type CreateInvoiceResponse struct {
	InvoiceID string `json:"id"`
}

// Creator creates invoices in the external invoicing system
type Creator interface {
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*CreateInvoiceResponse, error)
}

// Reminder announces an upcoming generation to the client
type Reminder struct {
	IdempotencyKey     string    `json:"idempotency_key"`
	SeriesID           string    `json:"recurring_invoice_id"`
	ClientID           string    `json:"client_id"`
	RecipientEmail     string    `json:"recipient_email,omitempty"`
	NextGenerationDate time.Time `json:"next_generation_date"`
	DaysBefore         int       `json:"days_before"`
}

// ReminderSender dispatches reminders
type ReminderSender interface {
	SendReminder(ctx context.Context, reminder *Reminder) error
}

// SumAmounts totals the line item amounts
func SumAmounts(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// FormatAmount renders d with at least two decimals and never rounds away
// precision the value actually carries
func FormatAmount(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}
