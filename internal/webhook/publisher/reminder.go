package publisher

import (
	"context"

	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/types"
)

// reminderPayload is the body of a recurring_invoice.reminder event
type reminderPayload struct {
	IdempotencyKey     string `json:"idempotency_key"`
	RecurringInvoiceID string `json:"recurring_invoice_id"`
	ClientID           string `json:"client_id"`
	RecipientEmail     string `json:"recipient_email,omitempty"`
	NextGenerationDate string `json:"next_generation_date"`
	DaysBefore         int    `json:"days_before"`
}

// reminderSender delivers reminders as webhook events so any notification
// channel subscribed to the topic can pick them up
type reminderSender struct {
	publisher WebhookPublisher
	logger    *logger.Logger
}

// NewReminderSender creates a ReminderSender backed by the webhook publisher
func NewReminderSender(publisher WebhookPublisher, logger *logger.Logger) invoicing.ReminderSender {
	return &reminderSender{publisher: publisher, logger: logger}
}

func (s *reminderSender) SendReminder(ctx context.Context, reminder *invoicing.Reminder) error {
	event, err := NewEvent(ctx, types.WebhookEventRecurringInvoiceReminder, reminderPayload{
		IdempotencyKey:     reminder.IdempotencyKey,
		RecurringInvoiceID: reminder.SeriesID,
		ClientID:           reminder.ClientID,
		RecipientEmail:     reminder.RecipientEmail,
		NextGenerationDate: types.FormatDate(reminder.NextGenerationDate),
		DaysBefore:         reminder.DaysBefore,
	})
	if err != nil {
		return err
	}
	// the key doubles as message id so downstream consumers can de-duplicate
	event.ID = reminder.IdempotencyKey

	return s.publisher.PublishWebhook(ctx, event)
}
