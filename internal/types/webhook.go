package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents an event published to downstream consumers
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// recurring invoice event names
const (
	WebhookEventRecurringInvoiceReminder  = "recurring_invoice.reminder"
	WebhookEventRecurringInvoiceGenerated = "recurring_invoice.generated"
	WebhookEventRecurringInvoiceCompleted = "recurring_invoice.completed"
	WebhookEventRecurringInvoiceCancelled = "recurring_invoice.cancelled"
)
