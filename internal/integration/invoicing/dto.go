package invoicing

import (
	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/types"
)

// createInvoicePayload is the wire body of POST /invoices
type createInvoicePayload struct {
	ClientID           string            `json:"client_id"`
	RecurringInvoiceID string            `json:"recurring_invoice_id"`
	GenerationDate     string            `json:"generation_date"`
	LineItems          []lineItemPayload `json:"line_items"`
	Total              string            `json:"total"`
	AutoSend           bool              `json:"auto_send"`
	RecipientEmail     string            `json:"recipient_email,omitempty"`
}

type lineItemPayload struct {
	ProductID   string `json:"product_id,omitempty"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency,omitempty"`
}

type invoiceResponse struct {
	ID string `json:"id"`
}

func toPayload(req *invoicing.CreateInvoiceRequest) createInvoicePayload {
	items := make([]lineItemPayload, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		items = append(items, lineItemPayload{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   invoicing.FormatAmount(item.UnitPrice),
			Amount:      invoicing.FormatAmount(item.Amount),
			Currency:    item.Currency,
		})
	}
	return createInvoicePayload{
		ClientID:           req.ClientID,
		RecurringInvoiceID: req.SeriesID,
		GenerationDate:     types.FormatDate(req.GenerationDate),
		LineItems:          items,
		Total:              req.Total,
		AutoSend:           req.AutoSend,
		RecipientEmail:     req.RecipientEmail,
	}
}
